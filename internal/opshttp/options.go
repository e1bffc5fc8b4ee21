package opshttp

import (
	"net/http"

	"github.com/keithlinneman/yummigo-web/internal/health"
	"github.com/keithlinneman/yummigo-web/internal/version"
)

type Options struct {
	Port        int
	Metrics     http.Handler
	EnablePprof bool
	Health      health.Probe
	Readiness   health.Probe
	// Version is served as JSON at /-/version.
	Version version.Info
	// OnPanic is called after a handler panic is recovered.
	OnPanic func()
}
