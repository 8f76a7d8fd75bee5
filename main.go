package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"backend/internal/checkout"
	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/payments"
	"backend/internal/paystack"
	"backend/internal/store"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsurePaymentIndexes(db); err != nil {
		log.Printf("payment index warning: %v", err)
	}

	users := store.NewUsers(db)
	products := store.NewProducts(db)
	carts := store.NewCarts(db)
	orders := store.NewOrders(db)
	paymentStore := store.NewPayments(db)
	ledger := store.NewLedger(db)

	gateway := paystack.NewClient(
		config.AppEnv.PaystackBaseURL,
		config.AppEnv.PaystackSecretKey,
		config.AppEnv.GatewayTimeout,
	)

	checkoutSvc := checkout.NewService(users, carts, products, ledger, orders, paymentStore, gateway)
	reconciler := payments.NewReconciler(config.AppEnv.PaystackSecretKey, orders, paymentStore, ledger, carts)

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(users, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/auth/login", handlers.Login(users, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	r.GET("/products", handlers.GetProducts(products))

	r.POST("/webhooks/paystack", handlers.PaystackWebhook(reconciler))

	user := r.Group("/")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/cart", handlers.GetCart(carts))
		user.POST("/cart/items", handlers.AddCartItem(carts, products))
		user.DELETE("/cart/items/:productId", handlers.RemoveCartItem(carts))

		user.POST("/payments/initialize", handlers.InitializePayment(checkoutSvc))
		user.GET("/orders", handlers.GetMyOrders(orders))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.POST("/products", handlers.CreateProduct(products))
		admin.PATCH("/products/:id/stock", handlers.UpdateStock(products))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
