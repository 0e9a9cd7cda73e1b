package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vickybesra/Order-Execution-Engine/handlers"
	"github.com/vickybesra/Order-Execution-Engine/service"
)

func RegisterRoutes(router *gin.Engine, orderService *service.OrderService, broadcaster *service.Broadcaster) {
	orderHandler := handlers.NewOrderHandler(orderService, broadcaster)

	api := router.Group("/api")
	{
		api.POST("/orders", orderHandler.PlaceOrder)
		api.GET("/orders", orderHandler.ListActiveOrders)
		api.GET("/orders/:id", orderHandler.GetOrderStatus)
		api.GET("/orders/:id/stream", orderHandler.StreamOrderStatus)

		api.GET("/health", orderHandler.Health)
	}
}
