package internal

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hbomb79/Snag/internal/api"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/internal/postprocess"
	"github.com/hbomb79/Snag/internal/retrieve/instagram"
	"github.com/hbomb79/Snag/internal/retrieve/ytdlp"
	"github.com/hbomb79/Snag/pkg/logger"
)

var coreLog = logger.Get("Core")

// Snag is the top-level object for the gateway, responsible for
// wiring the download pipeline's components together from the
// process configuration and running the REST gateway.
type snagImpl struct {
	config      SnagConfig
	restGateway *api.RestGateway
}

func New(config SnagConfig) *snagImpl {
	coreLog.Emit(logger.DEBUG, "Bootstrapping Snag services\n")

	downloadRoot := config.DownloadDirPath
	if downloadRoot == "" {
		downloadRoot = filepath.Join(os.TempDir(), "snag")
	}

	workspaces := workspace.NewManager(downloadRoot)

	generic := ytdlp.New(ytdlp.Config{
		BinaryPath: config.YtDlpBinaryPath,
		FfmpegPath: config.FfmpegBinaryPath,
	})

	sessions := instagram.NewSessionSource(
		config.Credentials.InstagramSessionSecret(),
		config.Credentials.InstagramUsername,
		config.Credentials.InstagramPassword,
	)
	social := instagram.NewRetriever(sessions)

	pipeline := postprocess.NewPipeline(postprocess.NewFfmpegExtractor(postprocess.FfmpegConfig{
		FfmpegBinPath:  config.FfmpegBinaryPath,
		FfprobeBinPath: config.FfprobeBinaryPath,
	}))

	downloadService := newDownloadService(
		workspaces,
		generic,
		social,
		pipeline,
		config.Credentials.YoutubeCookieSecret(),
		config.RequestTimeout,
	)

	restGateway := api.NewRestGateway(
		&api.RestConfig{HostAddr: net.JoinHostPort(config.ApiHostAddr, config.ApiHostPort)},
		downloadService,
	)

	return &snagImpl{config: config, restGateway: restGateway}
}

// Run brings the gateway up after verifying the external tooling the
// pipeline depends on is actually present. A missing transcoder or
// extractor binary is a fatal environment problem, not something to
// discover one failed request at a time.
func (snag *snagImpl) Run(ctx context.Context) error {
	if err := snag.probeBinaries(); err != nil {
		return err
	}

	coreLog.Emit(logger.INFO, "Starting REST gateway\n")
	return snag.restGateway.Run(ctx)
}

func (snag *snagImpl) probeBinaries() error {
	for _, binary := range []string{snag.config.FfmpegBinaryPath, snag.config.YtDlpBinaryPath} {
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("required binary '%s' is not available: %w", binary, err)
		}
	}

	return nil
}
