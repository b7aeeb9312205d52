package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
)

// Columnas esperadas; la cabecera es obligatoria y el orden libre.
const (
	colWarehouse   = "warehouse"
	colLocation    = "location"
	colMaxCapacity = "max_capacity"
	colName        = "name"
	colSKU         = "sku"
	colDescription = "description"
	colCategory    = "category"
	colStorage     = "storage_location"
	colQuantity    = "quantity"
	colExpiration  = "expiration_date"
)

var requiredColumns = []string{colWarehouse, colLocation, colMaxCapacity}

// seedWarehouse una bodega del archivo con sus ítems en orden de aparición.
type seedWarehouse struct {
	Request dto.CreateWarehouseRequest
	Items   []dto.CreateItemRequest
}

// decodeReader envuelve r según la codificación del archivo.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("codificación no soportada: %s", encoding)
	}
}

// parseSeed lee el CSV y agrupa las filas por bodega. Una fila sin sku solo declara la bodega.
// La primera fila de cada bodega fija ubicación y capacidad.
func parseSeed(r io.Reader) ([]*seedWarehouse, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("archivo vacío")
		}
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("falta la columna %q", col)
		}
	}
	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []*seedWarehouse
	byName := make(map[string]*seedWarehouse)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}

		name := field(rec, colWarehouse)
		if name == "" {
			return nil, fmt.Errorf("línea %d: warehouse vacío", line)
		}
		w, ok := byName[name]
		if !ok {
			maxCap, err := strconv.Atoi(field(rec, colMaxCapacity))
			if err != nil {
				return nil, fmt.Errorf("línea %d: max_capacity inválida: %w", line, err)
			}
			w = &seedWarehouse{Request: dto.CreateWarehouseRequest{
				Name:        name,
				Location:    field(rec, colLocation),
				MaxCapacity: maxCap,
			}}
			byName[name] = w
			out = append(out, w)
		}

		sku := field(rec, colSKU)
		if sku == "" {
			continue
		}
		qty := 0
		if s := field(rec, colQuantity); s != "" {
			if qty, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("línea %d: quantity inválida: %w", line, err)
			}
		}
		item := dto.CreateItemRequest{
			Name:            field(rec, colName),
			SKU:             sku,
			Description:     field(rec, colDescription),
			Category:        field(rec, colCategory),
			StorageLocation: field(rec, colStorage),
			Quantity:        qty,
		}
		if exp := field(rec, colExpiration); exp != "" {
			item.ExpirationDate = &exp
		}
		w.Items = append(w.Items, item)
	}
	return out, nil
}
