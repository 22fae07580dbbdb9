// Package orchestrators coordinates the provisioning workflows across the
// domain services and gateways.
package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ochairo/pie/internal/domain/entities"
	"github.com/ochairo/pie/internal/domain/interfaces/gateways"
	"github.com/ochairo/pie/internal/domain/interfaces/repositories"
	"github.com/ochairo/pie/internal/domain/services"
)

// WrapperWriter generates and removes convenience wrapper scripts
type WrapperWriter interface {
	Write(binDir, python string) ([]string, error)
	Remove(binDir string) error
}

// InstallConfig holds configuration for the install workflow
type InstallConfig struct {
	Platform string
	BaseDir  string
	CacheDir string
	// Prerelease allows pre-release versions during resolution.
	Prerelease bool
	// Wrappers generates python/pip wrapper scripts after install.
	Wrappers bool
	// RefreshDeps reinstalls requirements even when the interpreter is
	// already current (the update command).
	RefreshDeps bool
	// SignatureSuffix locates the detached signature next to the archive
	// when a signature verifier is configured.
	SignatureSuffix string
}

// InstallOrchestrator coordinates the complete provisioning workflow
type InstallOrchestrator struct {
	releases   repositories.ReleaseRepository
	versions   *services.VersionService
	envs       *services.EnvironmentService
	downloader gateways.Downloader
	extractor  gateways.Extractor
	pip        gateways.PipRunner
	verifier   gateways.SignatureVerifier
	wrappers   WrapperWriter
	config     InstallConfig
}

// NewInstallOrchestrator creates a new install orchestrator. verifier may
// be nil when signature verification is not configured.
func NewInstallOrchestrator(
	releases repositories.ReleaseRepository,
	versions *services.VersionService,
	envs *services.EnvironmentService,
	downloader gateways.Downloader,
	extractor gateways.Extractor,
	pip gateways.PipRunner,
	verifier gateways.SignatureVerifier,
	wrappers WrapperWriter,
	config InstallConfig,
) *InstallOrchestrator {
	return &InstallOrchestrator{
		releases:   releases,
		versions:   versions,
		envs:       envs,
		downloader: downloader,
		extractor:  extractor,
		pip:        pip,
		verifier:   verifier,
		wrappers:   wrappers,
		config:     config,
	}
}

// Install provisions the environment described by the manifest. The run is
// idempotent: when the installed version already satisfies the request
// nothing is downloaded, extracted or installed.
func (o *InstallOrchestrator) Install(ctx context.Context, manifest *entities.Manifest) (*entities.InstallReport, error) {
	startTime := time.Now()
	report := &entities.InstallReport{}

	fail := func(err error) (*entities.InstallReport, error) {
		report.Error = err
		report.TotalDuration = time.Since(startTime)
		return report, err
	}

	env, err := o.envs.Inspect(o.config.BaseDir, o.config.CacheDir)
	if err != nil {
		return fail(err)
	}

	release, err := o.resolve(ctx, manifest)
	if err != nil {
		return fail(err)
	}
	report.Release = release

	action := o.envs.Decide(env, release.Version)
	report.Action = action

	switch action {
	case entities.ActionNone:
		if !o.config.RefreshDeps {
			slog.Info("Environment already current", "version", env.InstalledVersion)
			report.Success = true
			report.TotalDuration = time.Since(startTime)
			return report, nil
		}
		slog.Info("Interpreter current, refreshing dependencies", "version", env.InstalledVersion)

	case entities.ActionReinstall:
		slog.Info("Version mismatch, reinstalling",
			"installed", env.InstalledVersion, "requested", release.Version)
		if err := o.envs.RemoveDist(env); err != nil {
			return fail(err)
		}

	case entities.ActionInstall:
		slog.Info("Provisioning interpreter", "version", release.Version, "platform", release.Platform)
	}

	if action != entities.ActionNone {
		if err := o.provision(ctx, env, release, report); err != nil {
			return fail(err)
		}
	}

	python, err := o.pip.PythonPath(env.DistDir())
	if err != nil {
		return fail(err)
	}

	pipStart := time.Now()
	if err := o.pip.EnsurePip(ctx, python); err != nil {
		return fail(fmt.Errorf("pip bootstrap failed: %w", err))
	}
	for _, reqFile := range manifest.RequirementsFiles {
		if err := o.pip.InstallRequirements(ctx, python, reqFile); err != nil {
			return fail(fmt.Errorf("dependency installation failed: %w", err))
		}
		report.RequirementsRun++
	}
	report.PipDuration = time.Since(pipStart)

	if o.config.Wrappers {
		if _, err := o.wrappers.Write(env.BinDir(), python); err != nil {
			return fail(err)
		}
	}

	if action != entities.ActionNone {
		if err := o.envs.WriteLock(env, release.Version); err != nil {
			return fail(err)
		}
	}

	report.Success = true
	report.TotalDuration = time.Since(startTime)
	return report, nil
}

// resolve determines which release to install: the manifest override URL
// when present, otherwise the highest index match for the platform
func (o *InstallOrchestrator) resolve(ctx context.Context, manifest *entities.Manifest) (*entities.Release, error) {
	if manifest.RequestedVersion == "" {
		return nil, fmt.Errorf("manifest declares no interpreter version")
	}

	if manifest.OverrideURL != "" {
		// Override downloads have no index row, so no known checksum.
		return &entities.Release{
			Version:  manifest.RequestedVersion,
			Platform: o.config.Platform,
			URL:      manifest.OverrideURL,
		}, nil
	}

	idx, err := o.releases.Index(ctx)
	if err != nil {
		return nil, err
	}

	return o.versions.Resolve(idx, manifest.RequestedVersion, o.config.Platform, o.config.Prerelease)
}

// provision downloads, verifies and extracts a release into the
// environment's dist directory
func (o *InstallOrchestrator) provision(ctx context.Context, env *entities.Environment, release *entities.Release, report *entities.InstallReport) error {
	if release.SHA256 == "" {
		slog.Warn("No checksum recorded for release, skipping verification", "version", release.Version)
	}

	downloadStart := time.Now()
	archivePath, cacheHit, err := o.downloader.Fetch(ctx, release.URL, release.SHA256, env.CacheDir)
	if err != nil {
		return err
	}
	report.DownloadDuration = time.Since(downloadStart)
	report.CacheHit = cacheHit

	if o.verifier != nil {
		sigURL := release.URL + o.config.SignatureSuffix
		if err := o.verifier.VerifySignature(ctx, archivePath, sigURL); err != nil {
			return fmt.Errorf("archive signature check failed: %w", err)
		}
		slog.Info("Archive signature verified")
	}

	extractStart := time.Now()
	if err := o.extractor.Extract(archivePath, env.DistDir()); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if _, err := o.extractor.StripPathConfig(env.DistDir()); err != nil {
		return err
	}
	report.ExtractDuration = time.Since(extractStart)

	return nil
}

// UninstallOrchestrator removes a provisioned environment
type UninstallOrchestrator struct {
	envs     *services.EnvironmentService
	wrappers WrapperWriter
}

// NewUninstallOrchestrator creates a new uninstall orchestrator
func NewUninstallOrchestrator(envs *services.EnvironmentService, wrappers WrapperWriter) *UninstallOrchestrator {
	return &UninstallOrchestrator{envs: envs, wrappers: wrappers}
}

// Uninstall removes the distribution, wrappers and lock file. The archive
// cache is kept unless purgeCache is set.
func (o *UninstallOrchestrator) Uninstall(baseDir, cacheDir string, purgeCache bool) error {
	env, err := o.envs.Inspect(baseDir, cacheDir)
	if err != nil {
		return err
	}

	if err := o.envs.RemoveDist(env); err != nil {
		return err
	}

	if err := o.wrappers.Remove(env.BinDir()); err != nil {
		return err
	}

	if purgeCache {
		if err := os.RemoveAll(cacheDir); err != nil {
			return fmt.Errorf("failed to remove cache: %w", err)
		}
	}

	slog.Info("Environment removed", "base", baseDir, "cache_purged", purgeCache)
	return nil
}
