package inventory

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// transferState lo que el motor necesita saber para decidir un traslado.
type transferState struct {
	source      *entity.Warehouse
	destination *entity.Warehouse
	sourceItem  *entity.Item
	destItem    *entity.Item
}

// Transfer mueve Quantity unidades de un SKU de la bodega origen a la destino como una sola unidad atómica:
// resta en el ítem origen, suma (o crea) en el ítem destino y ajusta la ocupación de ambas bodegas.
// La validación previa a los bloqueos es solo consultiva; las cinco precondiciones se revalidan con
// las dos secciones exclusivas tomadas.
func (e *Engine) Transfer(ctx context.Context, in entity.Transfer) (*entity.TransferResult, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	if err := validateTransfer(in); err != nil {
		return nil, err
	}

	ctx, cancel := e.detach(ctx)
	defer cancel()
	ctx, span := tracer.Start(ctx, "inventory.transfer", trace.WithAttributes(
		attribute.String("transfer.source", in.SourceWarehouseID),
		attribute.String("transfer.destination", in.DestinationWarehouseID),
		attribute.String("transfer.sku", in.SKU),
		attribute.Int("transfer.quantity", in.Quantity),
	))
	defer span.End()

	// Prevalidación sin bloqueos: falla rápido sin abrir transacción.
	if st, err := e.loadTransferState(ctx, e.warehouseRepo, e.itemRepo, in, nil); err != nil {
		return nil, e.transferFailed(span, in, err)
	} else if err := checkTransfer(in, st); err != nil {
		return nil, e.transferFailed(span, in, err)
	}

	result := &entity.TransferResult{TransferID: e.newID(), Transfer: in}
	err := e.txRunner.Run(ctx, func(ctx context.Context, warehouseRepo repository.WarehouseRepository, itemRepo repository.ItemRepository) error {
		locked, err := lockInOrder(ctx, warehouseRepo, in.SourceWarehouseID, in.DestinationWarehouseID)
		if err != nil {
			return err
		}
		st, err := e.loadTransferState(ctx, warehouseRepo, itemRepo, in, locked)
		if err != nil {
			return err
		}
		if err := checkTransfer(in, st); err != nil {
			return err
		}
		return e.applyTransfer(ctx, warehouseRepo, itemRepo, in, st, result)
	})
	if err != nil {
		return nil, e.transferFailed(span, in, err)
	}
	result.CompletedAt = e.now()

	e.log.Info().
		Str("transfer_id", result.TransferID).
		Str("source", in.SourceWarehouseID).
		Str("destination", in.DestinationWarehouseID).
		Str("sku", in.SKU).
		Int("quantity", in.Quantity).
		Bool("destination_created", result.DestinationCreated).
		Msg("traslado completado")

	e.record(ctx, &entity.Activity{
		Kind: entity.ActivityTransfer,
		Message: fmt.Sprintf("Transferred %d of SKU %s from warehouse #%s to #%s",
			in.Quantity, in.SKU, in.SourceWarehouseID, in.DestinationWarehouseID),
		WarehouseID: in.SourceWarehouseID,
		ItemID:      result.SourceItem.ID,
		SKU:         in.SKU,
		Quantity:    in.Quantity,
		OccurredAt:  result.CompletedAt,
	})
	return result, nil
}

func (e *Engine) transferFailed(span trace.Span, in entity.Transfer, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ev := e.log.Debug()
	if domain.IsRetryable(err) {
		ev = e.log.Warn()
	} else if _, ok := domain.AsError(err); !ok {
		ev = e.log.Error()
	}
	ev.Err(err).
		Str("source", in.SourceWarehouseID).
		Str("destination", in.DestinationWarehouseID).
		Str("sku", in.SKU).
		Int("quantity", in.Quantity).
		Msg("traslado rechazado")
	return err
}

// validateTransfer precondiciones 1 y 2: no dependen del estado.
func validateTransfer(in entity.Transfer) error {
	if in.SourceWarehouseID == "" || in.DestinationWarehouseID == "" {
		return domain.Validation("sourceWarehouseId y destinationWarehouseId son requeridos")
	}
	if in.SourceWarehouseID == in.DestinationWarehouseID {
		return domain.Validation("la bodega origen y destino deben ser distintas")
	}
	if in.SKU == "" {
		return domain.Validation("sku es requerido")
	}
	if in.Quantity <= 0 {
		return domain.Validation("quantity debe ser mayor que 0").WithDetail("quantity", in.Quantity)
	}
	return nil
}

// loadTransferState lee bodegas e ítems. Con locked != nil las bodegas vienen de la sección exclusiva.
func (e *Engine) loadTransferState(
	ctx context.Context,
	warehouseRepo repository.WarehouseRepository,
	itemRepo repository.ItemRepository,
	in entity.Transfer,
	locked map[string]*entity.Warehouse,
) (*transferState, error) {
	st := &transferState{}
	if locked != nil {
		st.source = locked[in.SourceWarehouseID]
		st.destination = locked[in.DestinationWarehouseID]
	} else {
		var err error
		if st.source, err = warehouseRepo.GetByID(ctx, in.SourceWarehouseID); err != nil {
			return nil, err
		}
		if st.destination, err = warehouseRepo.GetByID(ctx, in.DestinationWarehouseID); err != nil {
			return nil, err
		}
	}
	if st.source == nil {
		return nil, domain.NotFound("bodega origen", in.SourceWarehouseID)
	}
	if st.destination == nil {
		return nil, domain.NotFound("bodega destino", in.DestinationWarehouseID)
	}

	var err error
	if st.sourceItem, err = itemRepo.FindBySKUInWarehouse(ctx, in.SourceWarehouseID, in.SKU); err != nil {
		return nil, err
	}
	if st.destItem, err = itemRepo.FindBySKUInWarehouse(ctx, in.DestinationWarehouseID, in.SKU); err != nil {
		return nil, err
	}
	return st, nil
}

// checkTransfer precondiciones 4 y 5 sobre un estado ya cargado.
func checkTransfer(in entity.Transfer, st *transferState) error {
	if st.sourceItem == nil {
		return domain.InsufficientQuantity(in.SourceWarehouseID, in.SKU, in.Quantity, 0)
	}
	if _, err := inventory.ApplyQuantity(st.sourceItem, -in.Quantity); err != nil {
		return err
	}
	if _, err := inventory.ApplyOccupancy(st.destination, in.Quantity); err != nil {
		return err
	}
	return nil
}

// applyTransfer las cuatro mutaciones; cualquier error deja que el TxRunner haga Rollback.
func (e *Engine) applyTransfer(
	ctx context.Context,
	warehouseRepo repository.WarehouseRepository,
	itemRepo repository.ItemRepository,
	in entity.Transfer,
	st *transferState,
	result *entity.TransferResult,
) error {
	srcQty, err := itemRepo.UpdateQuantity(ctx, st.sourceItem.ID, -in.Quantity)
	if err != nil {
		return err
	}
	sourceItem := st.sourceItem.Clone()
	sourceItem.Quantity = srcQty

	var destItem *entity.Item
	if st.destItem == nil {
		destItem = st.sourceItem.CopyForWarehouse(e.newID(), in.DestinationWarehouseID, e.now())
		destItem.Quantity = in.Quantity
		if err := itemRepo.Create(ctx, destItem); err != nil {
			return err
		}
		result.DestinationCreated = true
	} else {
		dstQty, err := itemRepo.UpdateQuantity(ctx, st.destItem.ID, in.Quantity)
		if err != nil {
			return err
		}
		destItem = st.destItem.Clone()
		destItem.Quantity = dstQty
	}

	source, err := warehouseRepo.AdjustOccupancy(ctx, in.SourceWarehouseID, -in.Quantity)
	if err != nil {
		return err
	}
	destination, err := warehouseRepo.AdjustOccupancy(ctx, in.DestinationWarehouseID, in.Quantity)
	if err != nil {
		return err
	}

	result.SourceItem = sourceItem
	result.DestinationItem = destItem
	result.SourceWarehouse = source
	result.DestinationWarehouse = destination
	return nil
}
