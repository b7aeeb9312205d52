package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	domaininv "github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// MaxListLimit tope del parámetro limit en listados.
const MaxListLimit = 500

// MaxStoredQuantity tope de capacidades y cantidades: las columnas son INTEGER.
const MaxStoredQuantity = math.MaxInt32

// checkStoredRange valida que v quepa en una columna de cantidad.
func checkStoredRange(field string, v int) error {
	if v < 0 {
		return domain.Validation("%s no puede ser negativa", field).WithDetail(field, v)
	}
	if v > MaxStoredQuantity {
		return domain.Validation("%s no puede superar %d", field, MaxStoredQuantity).WithDetail(field, v)
	}
	return nil
}

// ActivityReader lectura del log de actividad.
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]*entity.Activity, error)
}

// InventoryService orquesta el CRUD de bodegas e ítems y delega en el motor toda mutación que toque
// ocupación. Después de cada mutación relee la bodega para responder con una ocupación consistente.
type InventoryService struct {
	engine        *inventory.Engine
	warehouseRepo repository.WarehouseRepository
	itemRepo      repository.ItemRepository
	recorder      inventory.ActivityRecorder
	activity      ActivityReader
	threshold     decimal.Decimal
	log           zerolog.Logger
	now           func() time.Time
}

// NewInventoryService construye el servicio. threshold es el porcentaje de ocupación de las alertas.
func NewInventoryService(
	engine *inventory.Engine,
	warehouseRepo repository.WarehouseRepository,
	itemRepo repository.ItemRepository,
	recorder inventory.ActivityRecorder,
	activity ActivityReader,
	threshold decimal.Decimal,
	log zerolog.Logger,
) *InventoryService {
	if threshold.IsZero() {
		threshold = domaininv.DefaultHighUsageThreshold
	}
	return &InventoryService{
		engine:        engine,
		warehouseRepo: warehouseRepo,
		itemRepo:      itemRepo,
		recorder:      recorder,
		activity:      activity,
		threshold:     threshold,
		log:           log.With().Str("component", "inventory_service").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ---- Bodegas ----

// CreateWarehouse crea una bodega vacía.
func (s *InventoryService) CreateWarehouse(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	location := strings.TrimSpace(in.Location)
	if name == "" || location == "" {
		return nil, domain.Validation("name y location son requeridos")
	}
	if err := checkStoredRange("maxCapacity", in.MaxCapacity); err != nil {
		return nil, err
	}

	now := s.now()
	w := &entity.Warehouse{
		ID:          uuid.New().String(),
		Name:        name,
		Location:    location,
		MaxCapacity: in.MaxCapacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.warehouseRepo.Create(ctx, w); err != nil {
		return nil, err
	}
	s.record(ctx, &entity.Activity{
		Kind:        entity.ActivityWarehouseCreated,
		Message:     fmt.Sprintf("Created warehouse %q", w.Name),
		WarehouseID: w.ID,
	})
	return s.toWarehouseResponse(w), nil
}

// UpdateWarehouse cambia nombre, ubicación o capacidad máxima.
func (s *InventoryService) UpdateWarehouse(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	changes := inventory.WarehouseChanges{MaxCapacity: in.MaxCapacity}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Validation("name no puede estar vacío")
		}
		changes.Name = &name
	}
	if in.Location != nil {
		location := strings.TrimSpace(*in.Location)
		if location == "" {
			return nil, domain.Validation("location no puede estar vacía")
		}
		changes.Location = &location
	}
	if in.MaxCapacity != nil {
		if err := checkStoredRange("maxCapacity", *in.MaxCapacity); err != nil {
			return nil, err
		}
	}

	if _, err := s.engine.ResizeWarehouse(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.GetWarehouse(ctx, id)
}

// DeleteWarehouse elimina una bodega sin ítems.
func (s *InventoryService) DeleteWarehouse(ctx context.Context, id string) error {
	return s.engine.DeleteWarehouse(ctx, id)
}

// GetWarehouse obtiene una bodega por ID.
func (s *InventoryService) GetWarehouse(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	w, err := s.warehouseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.NotFound("bodega", id)
	}
	return s.toWarehouseResponse(w), nil
}

// ListWarehouses lista todas las bodegas.
func (s *InventoryService) ListWarehouses(ctx context.Context) ([]dto.WarehouseResponse, error) {
	list, err := s.warehouseRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.toWarehouseResponses(list), nil
}

// CapacityAlerts bodegas con ocupación igual o mayor al umbral configurado.
func (s *InventoryService) CapacityAlerts(ctx context.Context) ([]dto.WarehouseResponse, error) {
	list, err := s.warehouseRepo.ListAboveUtilization(ctx, s.threshold)
	if err != nil {
		return nil, err
	}
	return s.toWarehouseResponses(list), nil
}

// ---- Ítems ----

// CreateItem da de alta un SKU nuevo en la bodega con su cantidad inicial.
func (s *InventoryService) CreateItem(ctx context.Context, warehouseID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	item := &entity.Item{
		SKU:             strings.TrimSpace(in.SKU),
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Category:        strings.TrimSpace(in.Category),
		StorageLocation: strings.TrimSpace(in.StorageLocation),
		Quantity:        in.Quantity,
	}
	if item.Name == "" || item.SKU == "" {
		return nil, domain.Validation("name y sku son requeridos")
	}
	if err := checkStoredRange("quantity", item.Quantity); err != nil {
		return nil, err
	}
	exp, err := parseDate(in.ExpirationDate)
	if err != nil {
		return nil, err
	}
	item.ExpirationDate = exp

	created, _, err := s.engine.ReceiveItem(ctx, warehouseID, item)
	if err != nil {
		return nil, err
	}
	return s.itemWithWarehouse(ctx, created)
}

// UpdateItem cambia campos descriptivos, SKU o cantidad de un ítem.
func (s *InventoryService) UpdateItem(ctx context.Context, warehouseID, itemID string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	changes := inventory.ItemChanges{
		Description: in.Description,
		Quantity:    in.Quantity,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Validation("name no puede estar vacío")
		}
		changes.Name = &name
	}
	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			return nil, domain.Validation("sku no puede estar vacío")
		}
		changes.SKU = &sku
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		changes.Category = &category
	}
	if in.StorageLocation != nil {
		loc := strings.TrimSpace(*in.StorageLocation)
		changes.StorageLocation = &loc
	}
	if in.Quantity != nil {
		if err := checkStoredRange("quantity", *in.Quantity); err != nil {
			return nil, err
		}
	}
	exp, err := parseDate(in.ExpirationDate)
	if err != nil {
		return nil, err
	}
	changes.ExpirationDate = exp

	updated, _, err := s.engine.UpdateItem(ctx, warehouseID, itemID, changes)
	if err != nil {
		return nil, err
	}
	return s.itemWithWarehouse(ctx, updated)
}

// DeleteItem elimina un ítem y libera su ocupación.
func (s *InventoryService) DeleteItem(ctx context.Context, warehouseID, itemID string) error {
	_, err := s.engine.RemoveItem(ctx, warehouseID, itemID)
	return err
}

// ListItems lista los ítems de una bodega existente.
func (s *InventoryService) ListItems(ctx context.Context, warehouseID string, in dto.ListItemsRequest) ([]dto.ItemResponse, error) {
	w, err := s.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.NotFound("bodega", warehouseID)
	}
	in.Normalize(MaxListLimit)
	items, err := s.itemRepo.ListByWarehouse(ctx, warehouseID, repository.ItemFilter{
		Category:  strings.TrimSpace(in.Category),
		SKUPrefix: strings.TrimSpace(in.SKUPrefix),
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, *toItemResponse(it))
	}
	return out, nil
}

// ---- Traslados ----

// Transfer delega en el motor; solo descarta cantidades que no caben en una columna.
func (s *InventoryService) Transfer(ctx context.Context, in dto.TransferRequest) (*dto.TransferResponse, error) {
	if in.Quantity > MaxStoredQuantity {
		return nil, domain.Validation("quantity no puede superar %d", MaxStoredQuantity).WithDetail("quantity", in.Quantity)
	}
	res, err := s.engine.Transfer(ctx, entity.Transfer{
		SourceWarehouseID:      strings.TrimSpace(in.SourceWarehouseID),
		DestinationWarehouseID: strings.TrimSpace(in.DestinationWarehouseID),
		SKU:                    in.SKU,
		Quantity:               in.Quantity,
	})
	if err != nil {
		return nil, err
	}
	return &dto.TransferResponse{
		TransferID:           res.TransferID,
		SKU:                  res.Transfer.SKU,
		Quantity:             res.Transfer.Quantity,
		SourceWarehouse:      *s.toWarehouseResponse(res.SourceWarehouse),
		DestinationWarehouse: *s.toWarehouseResponse(res.DestinationWarehouse),
		SourceItem:           *toItemResponse(res.SourceItem),
		DestinationItem:      *toItemResponse(res.DestinationItem),
		DestinationCreated:   res.DestinationCreated,
		CompletedAt:          res.CompletedAt,
	}, nil
}

// ---- Actividad y verificación ----

// RecentActivity últimas entradas del log, la más reciente primero.
func (s *InventoryService) RecentActivity(ctx context.Context, limit int) ([]dto.ActivityResponse, error) {
	if s.activity == nil {
		return []dto.ActivityResponse{}, nil
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	list, err := s.activity.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActivityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.ActivityResponse{
			ID:          a.ID,
			Kind:        a.Kind,
			Message:     a.Message,
			WarehouseID: a.WarehouseID,
			ItemID:      a.ItemID,
			SKU:         a.SKU,
			Quantity:    a.Quantity,
			Operator:    a.Operator,
			OccurredAt:  a.OccurredAt,
		})
	}
	return out, nil
}

// VerifyLedger compara la ocupación almacenada de cada bodega con la suma de sus ítems.
func (s *InventoryService) VerifyLedger(ctx context.Context) (*dto.LedgerReport, error) {
	warehouses, err := s.warehouseRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	report := &dto.LedgerReport{Warehouses: len(warehouses), Mismatches: []dto.LedgerMismatch{}}
	for _, w := range warehouses {
		items, err := s.itemRepo.ListByWarehouse(ctx, w.ID, repository.ItemFilter{})
		if err != nil {
			return nil, err
		}
		report.Items += len(items)
		if err := domaininv.Verify(w, items); err != nil {
			report.Mismatches = append(report.Mismatches, dto.LedgerMismatch{
				WarehouseID: w.ID,
				Name:        w.Name,
				Stored:      w.CurrentCapacity,
				Derived:     domaininv.Derive(items),
				MaxCapacity: w.MaxCapacity,
				Error:       err.Error(),
			})
			s.log.Warn().Str("warehouse_id", w.ID).Err(err).Msg("ocupación inconsistente")
		}
	}
	return report, nil
}

// ---- helpers ----

func (s *InventoryService) record(ctx context.Context, a *entity.Activity) {
	if s.recorder == nil {
		return
	}
	a.ID = uuid.New().String()
	a.OccurredAt = s.now()
	s.recorder.Record(ctx, a)
}

func (s *InventoryService) itemWithWarehouse(ctx context.Context, it *entity.Item) (*dto.ItemResponse, error) {
	resp := toItemResponse(it)
	w, err := s.GetWarehouse(ctx, it.WarehouseID)
	if err != nil {
		return nil, err
	}
	resp.Warehouse = w
	return resp, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, domain.Validation("expirationDate inválida, se espera YYYY-MM-DD").WithDetail("expirationDate", *s)
	}
	return &t, nil
}

func (s *InventoryService) toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:                w.ID,
		Name:              w.Name,
		Location:          w.Location,
		MaxCapacity:       w.MaxCapacity,
		CurrentCapacity:   w.CurrentCapacity,
		AvailableCapacity: w.Available(),
		Utilization:       domaininv.Utilization(w),
		HighUsage:         domaininv.HighUsage(w, s.threshold),
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

func (s *InventoryService) toWarehouseResponses(list []*entity.Warehouse) []dto.WarehouseResponse {
	out := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		out = append(out, *s.toWarehouseResponse(w))
	}
	return out
}

func toItemResponse(it *entity.Item) *dto.ItemResponse {
	if it == nil {
		return nil
	}
	resp := &dto.ItemResponse{
		ID:              it.ID,
		WarehouseID:     it.WarehouseID,
		SKU:             it.SKU,
		Name:            it.Name,
		Description:     it.Description,
		Category:        it.Category,
		StorageLocation: it.StorageLocation,
		Quantity:        it.Quantity,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
	if it.ExpirationDate != nil {
		d := it.ExpirationDate.Format(dto.DateLayout)
		resp.ExpirationDate = &d
	}
	return resp
}
