package main

// server module
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"crypto/tls"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bunrouter"
)

// content is our static web server content.
//
//go:embed static
var StaticFs embed.FS

// helper function to get base path
func basePath(s string) string {
	if Config.Base != "" {
		if strings.HasPrefix(s, "/") {
			s = strings.Replace(s, "/", "", 1)
		}
		if strings.HasPrefix(Config.Base, "/") {
			return fmt.Sprintf("%s/%s", Config.Base, s)
		}
		return fmt.Sprintf("/%s/%s", Config.Base, s)
	}
	return s
}

// helper function to create bunrouter with our middlewares
func newRouter() *bunrouter.CompatRouter {
	return bunrouter.New(
		bunrouter.Use(bunrouterRequestIDMiddleware),
		bunrouter.Use(bunrouterLoggingMiddleware),
		bunrouter.Use(bunrouterLimitMiddleware),
	).Compat()
}

// serviceRouter provides routes of inference service
func serviceRouter(hub *Hub) *bunrouter.CompatRouter {
	router := newRouter()
	router.GET(basePath("/"), hub.StatusHandler)
	router.POST(basePath("/predict"), hub.PredictHandler)
	router.Router.GET(basePath("/metrics"), bunrouter.HTTPHandler(promhttp.Handler()))
	return router
}

// webRouter provides routes of interactive front-end
func webRouter(hub *Hub) *bunrouter.CompatRouter {
	router := newRouter()
	router.GET(basePath("/"), hub.IndexHandler)
	router.POST(basePath("/analyze"), hub.AnalyzeHandler)
	router.GET(basePath("/maps"), hub.MapsHandler)
	router.GET(basePath("/resources"), hub.ResourcesHandler)
	router.Router.GET(basePath("/metrics"), bunrouter.HTTPHandler(promhttp.Handler()))

	// static handlers
	for _, dir := range []string{"css"} {
		filesFS, err := fs.Sub(StaticFs, "static/"+dir)
		if err != nil {
			panic(err)
		}
		m := basePath("/" + dir)
		fileServer := http.FileServer(http.FS(filesFS))
		hdlr := http.StripPrefix(m, fileServer)
		router.Router.GET(m+"/*path", bunrouter.HTTPHandler(hdlr))
	}
	return router
}

// helper function to build router for configured role
func roleRouter(hub *Hub) *bunrouter.CompatRouter {
	if Config.Role == RoleWeb {
		return webRouter(hub)
	}
	return serviceRouter(hub)
}

// Server implements recyclehub server
func Server() {
	// initialize server middleware
	if err := initLimiter(Config.LimiterPeriod); err != nil {
		log.Fatalf("unable to initialize limiter with rate %s, error %v", Config.LimiterPeriod, err)
	}

	// classifier is loaded before we accept any traffic
	hub, err := NewHub()
	if err != nil {
		log.Fatalf("unable to initialize %s server, error %v", Config.Role, err)
	}
	defer hub.Close()

	// setup server router
	router := roleRouter(hub)

	// start HTTPs server
	if len(Config.DomainNames) > 0 {
		server := LetsEncryptServer(router, Config.DomainNames...)
		log.Println("Start HTTPs server with LetsEncrypt", Config.DomainNames)
		log.Println(server.ListenAndServeTLS("", ""))
	} else if Config.ServerCrt != "" && Config.ServerKey != "" {
		tlsConfig := &tls.Config{
			RootCAs: RootCAs(),
		}
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", Config.Port),
			TLSConfig:         tlsConfig,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Printf("Start %s HTTPs server with %s and %s on :%d", Config.Role, Config.ServerCrt, Config.ServerKey, Config.Port)
		log.Println(server.ListenAndServeTLS(Config.ServerCrt, Config.ServerKey))
	} else {
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", Config.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Printf("Start %s HTTP server on :%d", Config.Role, Config.Port)
		log.Println(server.ListenAndServe())
	}
}
