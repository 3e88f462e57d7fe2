package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	twilio "github.com/twilio/twilio-go"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/app"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/controllers"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/middleware"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/routes"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/services"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
)

func main() {
	utils.InitLogger(config.DefaultAppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize dispatch-service:", err)
	}
	defer application.Close()

	orderRepo := repositories.NewOrderRepository(application.DB)
	routeRepo := repositories.NewRouteRepository(application.DB)
	operatorRepo := repositories.NewOperatorRepository(application.DB)

	var geocoder services.Geocoder
	if cfg.GMapsAPIKey != "" {
		g, gErr := utils.NewGMapsGeocoder(cfg.GMapsAPIKey)
		if gErr != nil {
			utils.Logger.WithError(gErr).Warn("Geocoding disabled")
		} else {
			geocoder = g
		}
	}

	var emailSender services.EmailSender
	if cfg.SendGridAPIKey != "" {
		emailSender = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}
	var smsSender services.SMSSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
		smsSender = twClient.Api
	}

	groupingService := services.NewRouteGroupingService(orderRepo, routeRepo)
	routeService := services.NewRouteService(cfg, routeRepo, orderRepo, operatorRepo)
	orderService := services.NewOrderService(cfg, orderRepo, routeRepo, geocoder)
	dispatchService := services.NewDispatchService(cfg, routeRepo, orderRepo, operatorRepo)
	operatorService := services.NewOperatorService(operatorRepo)
	kpiService := services.NewKPIService(routeRepo, orderRepo, operatorRepo)
	notificationService := services.NewNotificationService(cfg, dispatchService, emailSender, smsSender)
	scheduler := services.NewSchedulerService(cfg, groupingService, dispatchService, notificationService)

	healthController := controllers.NewHealthController(application.DB)
	routesController := controllers.NewRoutesController(routeService, groupingService)
	ordersController := controllers.NewOrdersController(orderService)
	dispatchController := controllers.NewDispatchController(dispatchService, kpiService, notificationService)
	operatorsController := controllers.NewOperatorsController(operatorService)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AdminAuthMiddleware(cfg.RSAPublicKey))

	secured.HandleFunc(routes.OrdersBase, ordersController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.OrdersInbox, ordersController.InboxHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.OrdersGeocode, ordersController.GeocodeHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OrderByID, ordersController.DeleteHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.OrderRoute, ordersController.AssignRouteHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.OrderStatus, ordersController.SetStatusHandler).Methods(http.MethodPatch)

	secured.HandleFunc(routes.RoutesAutoGroup, routesController.AutoGroupHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.RoutesBase, routesController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.RoutesBase, routesController.CreateHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.RouteByID, routesController.UpdateHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.RouteByID, routesController.DeleteHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.RouteStatus, routesController.SetStatusHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.RouteReadiness, routesController.ReadinessHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.RouteSchedule, routesController.ScheduleHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.RouteStops, routesController.StopsHandler).Methods(http.MethodGet)

	secured.HandleFunc(routes.DispatchRunSheet, dispatchController.RunSheetHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.DispatchNotify, dispatchController.NotifyHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.DispatchKPIs, dispatchController.KPIsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.DispatchNextOpening, dispatchController.NextOpeningHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.DispatchAutoAssign, dispatchController.AutoAssignHandler).Methods(http.MethodPost)

	secured.HandleFunc(routes.OperatorsBase, operatorsController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.OperatorsBase, operatorsController.CreateHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OperatorByID, operatorsController.UpdateHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.OperatorByID, operatorsController.DeleteHandler).Methods(http.MethodDelete)

	c := cron.New()
	_, groupErr := c.AddFunc(constants.AutoGroupCronSpec, func() {
		if e := scheduler.RunNightlyAutoGroup(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled auto-grouping failed")
		}
	})
	if groupErr != nil {
		utils.Logger.WithError(groupErr).Fatal("Failed to schedule auto-grouping cron")
	}

	_, notifyErr := c.AddFunc(constants.RunSheetNotifySpec, func() {
		if e := scheduler.RunMorningNotify(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled run sheet notifications failed")
		}
	})
	if notifyErr != nil {
		utils.Logger.WithError(notifyErr).Fatal("Failed to schedule run sheet notification cron")
	}
	c.Start()
	defer c.Stop()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, constants.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("dispatch-service failed to start:", err)
	}
}
