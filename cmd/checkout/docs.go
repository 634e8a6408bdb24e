package main

// @title Course Checkout API
// @version 1.0
// @description Course purchase, payment confirmation and access checks

// @host localhost:8084
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Checkout
// @tag.description Order creation and payment verification

// @tag.name Webhooks
// @tag.description Processor notifications

// @tag.name Access
// @tag.description Course access checks

// @tag.name Invoices
// @tag.description Invoice retrieval

// @tag.name Admin
// @tag.description Admin-only endpoints

// @tag.name Health
// @tag.description Health check endpoints
