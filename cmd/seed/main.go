// seed carga bodegas e ítems desde un CSV a través del servicio de inventario y al final verifica
// que la ocupación de cada bodega coincida con la suma de sus ítems.
//
// Uso: go run ./cmd/seed [-encoding iso-8859-1] ruta/inventario.csv
// Cabecera: warehouse,location,max_capacity,name,sku,description,category,storage_location,quantity,expiration_date
// Usa la misma configuración que la API (STORE_DRIVER, DB_*, ...). Volver a ejecutarlo no duplica:
// las bodegas se reutilizan por nombre y los SKU existentes se omiten.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
	"github.com/jhoicas/bodegas-api/internal/bootstrap"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/pkg/config"
	"github.com/jhoicas/bodegas-api/pkg/logger"
)

var errUsage = errors.New("uso: seed [-encoding iso-8859-1] archivo.csv")

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run hace todo el trabajo; los defer corren antes de que main decida el código de salida.
func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("seed", flag.ContinueOnError)
	encoding := flags.String("encoding", "utf-8", "codificación del CSV: utf-8, iso-8859-1 o windows-1252")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if flags.NArg() != 1 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "seed"})

	f, err := os.Open(flags.Arg(0))
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()

	r, err := decodeReader(f, *encoding)
	if err != nil {
		return fmt.Errorf("codificación: %w", err)
	}
	warehouses, err := parseSeed(r)
	if err != nil {
		return fmt.Errorf("leer CSV: %w", err)
	}

	components, err := bootstrap.Build(ctx, cfg, log.Zerolog())
	if err != nil {
		return fmt.Errorf("inicializar dependencias: %w", err)
	}
	defer components.Close()

	stats, err := load(activity.WithOperator(ctx, "seed"), components.Service, warehouses)
	if err != nil {
		return fmt.Errorf("carga interrumpida: %w", err)
	}
	log.Info().
		Int("warehouses_created", stats.warehousesCreated).
		Int("warehouses_reused", stats.warehousesReused).
		Int("items_created", stats.itemsCreated).
		Int("items_skipped", stats.itemsSkipped).
		Msg("carga terminada")

	report, err := components.Service.VerifyLedger(ctx)
	if err != nil {
		return fmt.Errorf("verificar ocupación: %w", err)
	}
	if !report.OK() {
		for _, m := range report.Mismatches {
			log.Error().Str("warehouse_id", m.WarehouseID).Int("stored", m.Stored).Int("derived", m.Derived).Msg(m.Error)
		}
		return fmt.Errorf("ocupación descuadrada en %d bodegas", len(report.Mismatches))
	}
	log.Info().Int("warehouses", report.Warehouses).Int("items", report.Items).Msg("ocupación verificada")
	return nil
}

type loadStats struct {
	warehousesCreated int
	warehousesReused  int
	itemsCreated      int
	itemsSkipped      int
}

// load crea lo que falte. Un SKU repetido o sin capacidad se omite; cualquier otro error corta la carga.
func load(ctx context.Context, svc *usecase.InventoryService, warehouses []*seedWarehouse) (loadStats, error) {
	var stats loadStats
	existing, err := svc.ListWarehouses(ctx)
	if err != nil {
		return stats, err
	}
	idByName := make(map[string]string, len(existing))
	for _, w := range existing {
		idByName[w.Name] = w.ID
	}

	for _, sw := range warehouses {
		id, ok := idByName[sw.Request.Name]
		if ok {
			stats.warehousesReused++
		} else {
			created, err := svc.CreateWarehouse(ctx, sw.Request)
			if err != nil {
				return stats, fmt.Errorf("bodega %q: %w", sw.Request.Name, err)
			}
			id = created.ID
			idByName[created.Name] = id
			stats.warehousesCreated++
		}

		for _, item := range sw.Items {
			_, err := svc.CreateItem(ctx, id, item)
			switch {
			case err == nil:
				stats.itemsCreated++
			case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrCapacityExceeded):
				stats.itemsSkipped++
			default:
				return stats, fmt.Errorf("bodega %q, sku %s: %w", sw.Request.Name, item.SKU, err)
			}
		}
	}
	return stats, nil
}
