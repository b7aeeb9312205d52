package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/events"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/memory"
)

const sampleCSV = `warehouse,location,max_capacity,name,sku,description,category,storage_location,quantity,expiration_date
Central,Bogotá,100,Tornillo,TOR-1,Acero,ferretería,A-1,40,
Central,Bogotá,100,Leche,LEC-1,,lácteos,F-2,10,2030-01-31
Norte,Medellín,50,,,,,,,
`

func TestParseSeed_AgrupaPorBodega(t *testing.T) {
	ws, err := parseSeed(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, ws, 2)

	assert.Equal(t, "Central", ws[0].Request.Name)
	assert.Equal(t, 100, ws[0].Request.MaxCapacity)
	require.Len(t, ws[0].Items, 2)
	assert.Equal(t, "TOR-1", ws[0].Items[0].SKU)
	assert.Equal(t, 40, ws[0].Items[0].Quantity)
	assert.Nil(t, ws[0].Items[0].ExpirationDate)
	require.NotNil(t, ws[0].Items[1].ExpirationDate)
	assert.Equal(t, "2030-01-31", *ws[0].Items[1].ExpirationDate)

	assert.Equal(t, "Norte", ws[1].Request.Name)
	assert.Empty(t, ws[1].Items)
}

func TestParseSeed_Errores(t *testing.T) {
	_, err := parseSeed(strings.NewReader(""))
	assert.Error(t, err)

	_, err = parseSeed(strings.NewReader("warehouse,location\nA,B\n"))
	assert.ErrorContains(t, err, "max_capacity")

	_, err = parseSeed(strings.NewReader("warehouse,location,max_capacity\nA,B,mucho\n"))
	assert.ErrorContains(t, err, "línea 2")

	_, err = parseSeed(strings.NewReader("warehouse,location,max_capacity,sku,quantity\nA,B,10,S-1,x\n"))
	assert.ErrorContains(t, err, "quantity")
}

func TestDecodeReader_Latin1(t *testing.T) {
	// "Bogotá" en ISO-8859-1: á = 0xE1
	raw := []byte("warehouse,location,max_capacity\nCentral,Bogot\xe1,10\n")
	r, err := decodeReader(bytes.NewReader(raw), "iso-8859-1")
	require.NoError(t, err)
	ws, err := parseSeed(r)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "Bogotá", ws[0].Request.Location)

	_, err = decodeReader(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestLoad_EsRepetible(t *testing.T) {
	log := zerolog.Nop()
	store := memory.NewStore(0)
	recorder := activity.NewRecorder(memory.NewActivityRing(10), events.NoopPublisher{}, log)
	engine := inventory.NewEngine(store, store.Warehouses(), store.Items(), recorder)
	svc := usecase.NewInventoryService(engine, store.Warehouses(), store.Items(), recorder, recorder, decimal.Zero, log)

	ws, err := parseSeed(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	ctx := context.Background()

	stats, err := load(ctx, svc, ws)
	require.NoError(t, err)
	assert.Equal(t, loadStats{warehousesCreated: 2, itemsCreated: 2}, stats)

	stats, err = load(ctx, svc, ws)
	require.NoError(t, err)
	assert.Equal(t, loadStats{warehousesReused: 2, itemsSkipped: 2}, stats)

	report, err := svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Items)
}

func TestRun_CargaCSVEnMemoria(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	path := filepath.Join(t.TempDir(), "inventario.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	assert.NoError(t, run(context.Background(), []string{path}))
}

func TestRun_Errores(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "inventario.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	assert.ErrorIs(t, run(ctx, nil), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"a.csv", "b.csv"}), errUsage)
	assert.ErrorContains(t, run(ctx, []string{filepath.Join(t.TempDir(), "no-existe.csv")}), "abrir CSV")
	assert.ErrorContains(t, run(ctx, []string{"-encoding", "ebcdic", path}), "codificación")
}
