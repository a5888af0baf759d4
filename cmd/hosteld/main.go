package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/hostelhub/go-hostel"
	"github.com/hostelhub/go-hostel/provider/gotrue"
	"github.com/hostelhub/go-hostel/provider/local"
	"github.com/hostelhub/go-hostel/storage"
	"github.com/hostelhub/go-hostel/web"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

//go:embed views
var viewsFS embed.FS

type App struct {
	config Config
	logger *glog.BaseLogger
	bunDB  *bun.DB
	repo   hostel.RepositoryManager
	client hostel.IdentityClient
	store  *hostel.SessionStore
	srv    router.Server[*fiber.App]
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("hosteld"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg))
		fmt.Println("============")
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithIdentity(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	app.store.Initialize(ctx)
	defer app.store.Close()

	go app.srv.Serve(cfg.Addr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseDSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	migrationsFS, err := fs.Sub(hostel.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(migrationsFS); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group != nil && !group.IsZero() {
		app.GetLogger("persistence").Info("migrated", "group", group.String())
	}

	app.bunDB = db
	app.repo = hostel.NewRepositoryManager(db, hostel.WithProfilesPhoneRegion(app.config.PhoneRegion))

	return app.repo.Validate()
}

func WithIdentity(ctx context.Context, app *App) error {
	logger := logAdapter{app.GetLogger("auth")}

	// Volatile scope always exists; the durable Redis scope is optional.
	volatile := storage.NewMemory()
	stores := []hostel.ArtifactStore{volatile}

	var durable hostel.ArtifactStore
	if app.config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "redis unreachable")
		}
		durable = storage.NewRedis(rdb, "hostel:artifacts")
		stores = append(stores, durable)
	}

	sessionStore := durable
	if sessionStore == nil {
		sessionStore = volatile
	}

	var client hostel.IdentityClient
	switch app.config.Provider {
	case "gotrue":
		c, err := gotrue.NewClient(gotrue.Config{
			BaseURL:      app.config.GoTrueURL,
			APIKey:       app.config.GoTrueAPIKey,
			SessionStore: sessionStore,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		client = c

	case "local":
		c, err := local.NewProvider(app.bunDB, local.Config{
			SigningKey:   []byte(app.config.SigningKey),
			TokenTTL:     app.config.TokenTTL,
			Issuer:       "hosteld",
			AutoConfirm:  app.config.AutoConfirm,
			SessionStore: sessionStore,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		client = c

	default:
		return goerrors.New("unknown auth provider: "+app.config.Provider, goerrors.CategoryBadInput)
	}

	app.client = client
	app.store = hostel.NewSessionStore(
		client,
		app.repo.Profiles(),
		hostel.WithStoreLogger(logAdapter{app.GetLogger("session")}),
		hostel.WithArtifactStores(stores...),
		hostel.WithSignUpRedirect(app.config.SignUpRedirect),
	)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return err
	}

	engine := django.NewFileSystem(http.FS(sub), ".django")
	for name, fn := range hostel.TemplateHelpers() {
		engine.AddFunc(name, fn)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: app.config.Debug,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))
	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	controllers := web.NewControllers(
		app.store,
		app.repo,
		web.WithDebug(app.config.Debug),
		web.WithLogger(logAdapter{app.GetLogger("web")}),
	)

	web.RegisterRoutes(srv.Router(), controllers)

	app.srv = srv
	return nil
}

func WaitExitSignal() os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return <-sigs
}

// logAdapter bridges glog's key-value logger to the printf-style Logger the
// library packages expect.
type logAdapter struct {
	logger glog.Logger
}

func (l logAdapter) Debug(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l logAdapter) Info(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l logAdapter) Warn(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l logAdapter) Error(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
