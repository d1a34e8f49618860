package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           FarmFlow Marketplace API
// @version         0.1.0
// @description     Produce marketplace with crop catalog, risk-driven pricing, and a mutual-insurance pool.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
