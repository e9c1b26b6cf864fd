package routes

import (
	"campusride/internal/handlers"
	"campusride/internal/middleware"
	"campusride/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Rides         *handlers.RideHandler
	Bookings      *handlers.BookingHandler
	RideRequests  *handlers.RideRequestHandler
	Chats         *handlers.ChatHandler
	Notifications *handlers.NotificationHandler
	Marketplace   *handlers.MarketplaceHandler
	Accounts      *handlers.AccountHandler
	Geo           *handlers.GeoHandler
	Health        *handlers.HealthHandler
	WebSocket     *websocket.Handler
}

// Setup registers every route on r. auth guards all of /api/v1 and the
// websocket endpoint; limiter applies after auth so it can key by user.
func Setup(r *gin.Engine, h *Handlers, auth gin.HandlerFunc, limiter gin.HandlerFunc) {
	r.GET("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws", middleware.QueryToken(), auth, h.WebSocket.HandleWebSocket)

	api := r.Group("/api/v1")
	api.Use(auth, limiter)

	SetupRideRoutes(api, h.Rides, h.Bookings, h.RideRequests)
	SetupChatRoutes(api, h.Chats, h.Notifications)
	SetupMarketplaceRoutes(api, h.Marketplace)
	SetupAccountRoutes(api, h.Accounts, h.Geo)
}

func SetupRideRoutes(api *gin.RouterGroup, rides *handlers.RideHandler, bookings *handlers.BookingHandler, requests *handlers.RideRequestHandler) {
	r := api.Group("/rides")
	{
		r.POST("", rides.PublishRide)
		r.GET("/search", rides.SearchRides)
		r.GET("/mine", rides.ListMyRides)
		r.GET("/:id", rides.GetRide)
		r.DELETE("/:id", rides.DeleteRide)
		r.PUT("/:id/status", rides.UpdateRideStatus)
		r.GET("/:id/bookings", rides.ListRideBookings)
		r.POST("/:id/bookings", rides.BookRide)
	}

	b := api.Group("/bookings")
	{
		b.GET("/mine", bookings.ListMyBookings)
		b.GET("/:id", bookings.GetBooking)
		b.POST("/:id/cancel", bookings.CancelBooking)
	}

	rr := api.Group("/ride-requests")
	{
		rr.POST("", requests.CreateRequest)
		rr.GET("/mine", requests.ListMyRequests)
		rr.GET("/available", requests.ListAvailableRequests)
		rr.GET("/:id", requests.GetRequest)
		rr.POST("/:id/cancel", requests.CancelRequest)
		rr.POST("/:id/reject", requests.RejectRequest)
		rr.POST("/:id/accept", requests.AcceptRequest)
	}
}

func SetupChatRoutes(api *gin.RouterGroup, chats *handlers.ChatHandler, notifications *handlers.NotificationHandler) {
	c := api.Group("/chats")
	{
		c.POST("", chats.StartChat)
		c.GET("", chats.ListChats)
		c.GET("/:id", chats.GetChat)
		c.GET("/:id/messages", chats.ListMessages)
		c.POST("/:id/messages", chats.SendMessage)
		c.POST("/:id/read", chats.MarkRead)
	}

	n := api.Group("/notifications")
	{
		n.GET("", notifications.ListNotifications)
		n.GET("/unread-count", notifications.UnreadCount)
		n.POST("/read-all", notifications.MarkAllRead)
		n.POST("/:id/read", notifications.MarkRead)
	}
}

func SetupMarketplaceRoutes(api *gin.RouterGroup, market *handlers.MarketplaceHandler) {
	m := api.Group("/marketplace")
	{
		m.POST("/images", market.UploadImage)
		m.GET("/listings", market.SearchListings)
		m.POST("/listings", market.CreateListing)
		m.GET("/listings/mine", market.ListMyListings)
		m.GET("/listings/:id", market.GetListing)
		m.PUT("/listings/:id", market.UpdateListing)
		m.DELETE("/listings/:id", market.DeleteListing)
		m.POST("/listings/:id/sold", market.MarkSold)
		m.POST("/listings/:id/save", market.SaveListing)
		m.DELETE("/listings/:id/save", market.UnsaveListing)
		m.POST("/listings/:id/contact", market.ContactSeller)
		m.GET("/categories/:category", market.BrowseCategory)
		m.GET("/saved", market.ListSaved)
	}
}

func SetupAccountRoutes(api *gin.RouterGroup, accounts *handlers.AccountHandler, geo *handlers.GeoHandler) {
	me := api.Group("/me")
	{
		me.GET("", accounts.GetProfile)
		me.PUT("", accounts.UpsertProfile)
		me.DELETE("", accounts.DeleteAccount)
		me.POST("/devices", accounts.RegisterDevice)
		me.DELETE("/devices/:token", accounts.RemoveDevice)
		me.GET("/cars", accounts.ListCars)
		me.POST("/cars", accounts.CreateCar)
		me.DELETE("/cars/:id", accounts.DeleteCar)
	}

	api.GET("/geo/autocomplete", geo.Autocomplete)
}
