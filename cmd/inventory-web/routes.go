package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/inventory-system/inventory-web/internal/api"
	"github.com/inventory-system/inventory-web/internal/core/service"
	"github.com/inventory-system/inventory-web/internal/infrastructure/backend"
	"github.com/inventory-system/inventory-web/internal/infrastructure/db/memory"
)

// inventory-web routes: print every registered route.
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the registered HTTP routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend.New(backend.Config{BaseURL: "http://localhost"}, zerolog.Nop())
		if err != nil {
			return err
		}
		registry := service.NewSessionRegistry(service.SessionDeps{
			Auth:   client,
			Store:  memory.NewCredentialStore(),
			Logger: zerolog.Nop(),
		}, 0)
		defer registry.Close()

		e, err := api.NewRouter(api.Deps{
			Registry: registry,
			Products: client.Products,
			Guard:    memory.NewSubmissionGuard(),
			Logger:   zerolog.Nop(),
		}, api.Options{Registerer: prometheus.NewRegistry()})
		if err != nil {
			return err
		}

		routes := e.Routes()
		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path != routes[j].Path {
				return routes[i].Path < routes[j].Path
			}
			return routes[i].Method < routes[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tHANDLER")
		for _, r := range routes {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Path, r.Name)
		}
		return w.Flush()
	},
}
