package routes

const (
	// Health
	Health = "/health"

	// Orders
	OrdersBase    = "/api/v1/orders"
	OrdersInbox   = "/api/v1/orders/inbox"
	OrdersGeocode = "/api/v1/orders/geocode"
	OrderByID     = "/api/v1/orders/{id}"
	OrderRoute    = "/api/v1/orders/{id}/route"
	OrderStatus   = "/api/v1/orders/{id}/status"

	// Routes
	RoutesBase      = "/api/v1/routes"
	RoutesAutoGroup = "/api/v1/routes/auto-group"
	RouteByID       = "/api/v1/routes/{id}"
	RouteStatus     = "/api/v1/routes/{id}/status"
	RouteReadiness  = "/api/v1/routes/{id}/readiness"
	RouteSchedule   = "/api/v1/routes/{id}/schedule"
	RouteStops      = "/api/v1/routes/{id}/stops"

	// Dispatch
	DispatchRunSheet    = "/api/v1/dispatch/run-sheet"
	DispatchNotify      = "/api/v1/dispatch/notify"
	DispatchKPIs        = "/api/v1/dispatch/kpis"
	DispatchNextOpening = "/api/v1/dispatch/next-opening"
	DispatchAutoAssign  = "/api/v1/dispatch/auto-assign"

	// Operators
	OperatorsBase = "/api/v1/operators"
	OperatorByID  = "/api/v1/operators/{id}"
)
