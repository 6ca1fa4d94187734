package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jask/jaskmeme/internal/config"
	"github.com/jask/jaskmeme/internal/database"
	"github.com/jask/jaskmeme/internal/export"
	"github.com/jask/jaskmeme/internal/gallery"
	"github.com/jask/jaskmeme/internal/picker"
	"github.com/jask/jaskmeme/internal/render"
	"github.com/jask/jaskmeme/internal/secrets"
	"github.com/jask/jaskmeme/internal/share"
	"github.com/jask/jaskmeme/internal/tui"
	"github.com/jask/jaskmeme/internal/workspace"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	creds, err := secrets.Default()
	if err != nil {
		log.Fatalf("credentials: %v", err)
	}
	if len(os.Args) > 1 && os.Args[1] == "store-credentials" {
		if len(os.Args) > 2 && os.Args[2] == "--clear" {
			if err := clearCredentials(creds); err != nil {
				log.Fatalf("clear credentials: %v", err)
			}
			fmt.Println("publish credentials removed from " + creds.Path)
			return
		}
		if err := storeCredentials(creds, cfg.Share.Publish); err != nil {
			log.Fatalf("store credentials: %v", err)
		}
		fmt.Println("publish credentials stored in " + creds.Path)
		return
	}

	if _, err := os.Stat(config.Path()); os.IsNotExist(err) {
		if err := config.Save(cfg); err != nil {
			log.Printf("warn: write default config: %v", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		log.Fatalf("mkdir log dir: %v", err)
	}
	logFile, err := tea.LogToFile(cfg.Log.File, "jaskmeme")
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer logFile.Close()

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStore()

	style, err := renderStyle(cfg.Render)
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	compositor, err := render.NewCompositor(style)
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	ws, err := workspace.New(ctx, workspace.Options{
		Store:      store,
		Rasterizer: compositor,
		Saver:      export.NewDiskSaver(cfg.Export.Dir),
		Filename:   cfg.Export.Filename,
	})
	if err != nil {
		log.Fatalf("workspace: %v", err)
	}

	sharer := share.NewService(publisher(cfg.Share.Publish, creds), opener(cfg.Share))

	images, err := picker.Open(cfg.UI.ImagesDir)
	if err != nil {
		log.Printf("warn: image picker disabled: %v", err)
		images = nil
	} else {
		if err := images.Watch(ctx); err != nil {
			log.Printf("warn: not watching %s: %v", images.Root(), err)
		}
		defer images.Close()
	}

	p := tea.NewProgram(tui.New(ctx, tui.Options{
		Workspace:    ws,
		Picker:       images,
		Share:        sharer,
		PreviewWidth: cfg.UI.PreviewWidth,
	}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// openStore returns the gallery store for cfg and a func releasing it.
func openStore(cfg config.StorageConfig) (gallery.Store, func(), error) {
	switch strings.ToLower(cfg.Backend) {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(cfg.File), err)
		}
		return gallery.NewFileStore(cfg.File), func() {}, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir db dir: %w", err)
		}
		if err := database.RunMigrations(cfg.Driver, cfg.Path); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		db, err := database.Open(cfg.Driver, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		return gallery.NewSQLStore(db, cfg.Key), func() { _ = db.Close() }, nil
	}
}

func renderStyle(cfg config.RenderConfig) (render.Style, error) {
	style := render.DefaultStyle()
	style.Width = cfg.Width
	style.FontSize = cfg.FontSize
	style.OffsetX = cfg.OffsetX
	style.OffsetY = cfg.OffsetY
	style.ShadowOffset = cfg.ShadowOffset
	style.ShadowBlur = cfg.ShadowBlur
	text, err := render.ParseColor(cfg.TextColor)
	if err != nil {
		return render.Style{}, err
	}
	shadow, err := render.ParseColor(cfg.ShadowColor)
	if err != nil {
		return render.Style{}, err
	}
	style.TextColor = text
	style.ShadowColor = shadow
	return style, nil
}

// publisher is nil unless publishing is switched on and usable; sharing
// then falls back to data URLs.
func publisher(cfg config.PublishConfig, creds *secrets.Store) share.Publisher {
	if !cfg.Enabled {
		return nil
	}
	pub, err := share.NewS3Publisher(share.S3Config{
		Endpoint:      cfg.Endpoint,
		Region:        cfg.Region,
		AccessKey:     creds.Fill(cfg.AccessKey, secrets.PublishAccessKey),
		SecretKey:     creds.Fill(cfg.SecretKey, secrets.PublishSecretKey),
		Bucket:        cfg.Bucket,
		UseSSL:        cfg.UseSSL,
		PublicBaseURL: cfg.PublicBaseURL,
		LinkTTL:       cfg.LinkTTL,
	})
	if err != nil {
		log.Printf("warn: publishing disabled: %v", err)
		return nil
	}
	return pub
}

func opener(cfg config.ShareConfig) share.Opener {
	if !cfg.OpenBrowser {
		return nil
	}
	return share.NewBrowserOpener()
}

// storeCredentials copies publish keys given via env or config into the
// credential file so they can be dropped from both.
func storeCredentials(creds *secrets.Store, cfg config.PublishConfig) error {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("set JASKMEME_SHARE_PUBLISH_ACCESS_KEY and JASKMEME_SHARE_PUBLISH_SECRET_KEY first")
	}
	if err := creds.Put(secrets.PublishAccessKey, cfg.AccessKey); err != nil {
		return err
	}
	return creds.Put(secrets.PublishSecretKey, cfg.SecretKey)
}

func clearCredentials(creds *secrets.Store) error {
	for _, name := range []string{secrets.PublishAccessKey, secrets.PublishSecretKey} {
		if err := creds.Delete(name); err != nil {
			return err
		}
	}
	return nil
}
