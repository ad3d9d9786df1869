package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"garment-studio/catalog"
	"garment-studio/clipart"
	"garment-studio/compositor"
	"garment-studio/enquiry"
	"garment-studio/fonts"
	"garment-studio/handlers/api/catalogue"
	"garment-studio/handlers/api/enquiries"
	"garment-studio/handlers/api/images"
	studioapi "garment-studio/handlers/api/studio"
	"garment-studio/handlers/auth"
	authMiddleware "garment-studio/middleware"
	"garment-studio/stores"
	"garment-studio/studio"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(store stores.Store, mgr *studio.Manager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Token", "session", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		// Public catalogue reads, same shape the editor's catalogue source
		// expects.
		r.Get("/catalogue-fabrics", catalogue.HandleListFabrics(store))
		r.Get("/catalogue-items", catalogue.HandleListGarments(store))

		// Public enquiry intake.
		r.Post("/design-enquiries", enquiries.HandleCreate(store))

		// Editor sessions.
		r.Route("/studio/sessions", func(r chi.Router) {
			r.Post("/", studioapi.HandleCreateSession(mgr))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", studioapi.HandleGetState(mgr))
				r.Post("/resize", studioapi.HandleResize(mgr))
				r.Post("/elements", studioapi.HandleAddElement(mgr))
				r.Post("/logo", studioapi.HandleUploadLogo(mgr))
				r.Post("/select", studioapi.HandleSelect(mgr))
				r.Put("/selection", studioapi.HandleUpdateSelection(mgr))
				r.Delete("/selection", studioapi.HandleDeleteSelection(mgr))
				r.Post("/view", studioapi.HandleSwitchView(mgr))
				r.Post("/color", studioapi.HandleSwitchColor(mgr))
				r.Post("/garment", studioapi.HandleSwitchGarment(mgr))
				r.Get("/clipart", studioapi.HandleClipartSearch(mgr))
				r.Post("/clipart", studioapi.HandleClipartImport(mgr))
				r.Get("/preview.png", studioapi.HandlePreview(mgr))
				r.Post("/submit", studioapi.HandleSubmit(mgr))
			})
		})

		// Back-office routes, protected by JWT auth.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Get("/design-enquiries", enquiries.HandleList(store))
			r.Route("/design-enquiries/{id}", func(r chi.Router) {
				r.Get("/", enquiries.HandleGet(store))
				r.Put("/status", enquiries.HandleUpdateStatus(store))
			})
			r.Post("/catalogue-fabrics", catalogue.HandleSaveFabric(store))
			r.Post("/catalogue-items", catalogue.HandleSaveGarment(store))
		})
	})

	r.Get("/images/{name}", images.HandleGet(store))

	r.Post("/auth/login", auth.HandleLogin)

	return r
}

func waitForShutdown() {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	store := stores.GetStore()

	fontCatalog, err := fonts.Default()
	if err != nil {
		logrus.Fatalf("Failed to load fonts: %v", err)
	}

	renderer := compositor.NewRenderer(fontCatalog, &compositor.HTTPFetcher{})

	iconifyBase := os.Getenv("ICONIFY_BASE_URL")
	if iconifyBase == "" {
		iconifyBase = clipart.DefaultBaseURL
	}
	bridge := clipart.New(iconifyBase, nil)

	// With no external catalogue configured the studio serves its own store.
	var catalogSource catalog.Source = catalog.NewStoreSource(store)
	if base := os.Getenv("CATALOGUE_BASE_URL"); base != "" {
		catalogSource = catalog.NewHTTPSource(base, nil)
	}

	// Submissions post to the external intake endpoint if one is configured,
	// otherwise back into this process.
	endpoint := os.Getenv("ENQUIRY_ENDPOINT")
	if endpoint == "" {
		host := *listenAddress
		if strings.HasPrefix(host, ":") {
			host = "127.0.0.1" + host
		}
		endpoint = "http://" + host + "/api/design-enquiries"
	}
	controller := enquiry.NewController(renderer, endpoint, nil)

	mgr := studio.NewManager(studio.Deps{
		Catalog:    catalogSource,
		Images:     store,
		Clipart:    bridge,
		Renderer:   renderer,
		Controller: controller,
		Fonts:      fontCatalog,
	})

	r := setupRouter(store, mgr)

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown()
}
