package http

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// Headers propios de la API de movimientos.
const (
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderIdempotentReplay = "Idempotent-Replayed"
)

// MovementRecorder registra movimientos (inventory.MovementUseCase).
type MovementRecorder interface {
	Move(ctx context.Context, in inventory.MovementInputDTO) (*inventory.MovementResult, error)
}

// InventoryReader consultas de saldos y kardex (inventory.QueryUseCase).
type InventoryReader interface {
	ListBalances(ctx context.Context, scope tenant.Scope, f repository.BalanceFilter) (*dto.BalanceListResponse, error)
	Kardex(ctx context.Context, scope tenant.Scope, productID string, limit, offset int) (*dto.KardexResponse, error)
	GetMovement(ctx context.Context, scope tenant.Scope, id string) (*dto.MovementResponse, error)
	KardexPDF(ctx context.Context, scope tenant.Scope, productID string) ([]byte, error)
}

// InventoryHandler maneja las peticiones HTTP de movimientos e inventario (protegido).
type InventoryHandler struct {
	movements MovementRecorder
	queries   InventoryReader
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(movements MovementRecorder, queries InventoryReader) *InventoryHandler {
	return &InventoryHandler{movements: movements, queries: queries}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  IN requiere to_warehouse_id, OUT from_warehouse_id, TRANSFER ambos, ADJUST exactamente uno más adjust_to_quantity.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia si no viene en el body"
// @Param        body  body  dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	scope := GetScope(c)
	if scope.IsZero() {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if ok, err := validateStruct(c, &in); !ok {
		return err
	}
	key, err := idempotencyKey(in.IdempotencyKey, c.Get(HeaderIdempotencyKey))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	res, err := h.movements.Move(c.UserContext(), inventory.MovementInputDTO{
		Scope:            scope,
		UserID:           GetUserID(c),
		Role:             GetRole(c),
		Type:             entity.MovementType(in.Type),
		ProductID:        in.ProductID,
		FromWarehouseID:  in.FromWarehouseID,
		ToWarehouseID:    in.ToWarehouseID,
		Quantity:         in.Quantity,
		AdjustToQuantity: in.AdjustToQuantity,
		Reference:        in.Reference,
		IdempotencyKey:   key,
	})
	if err != nil {
		return writeError(c, err)
	}
	if res.Replayed {
		c.Set(HeaderIdempotentReplay, "true")
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResponse(res.Movement))
}

// idempotencyKey toma la clave del body o, si no viene, del header. Si vienen las dos deben coincidir.
func idempotencyKey(body, header string) (string, error) {
	body, header = strings.TrimSpace(body), strings.TrimSpace(header)
	switch {
	case body == "":
		return header, nil
	case header != "" && header != body:
		return "", fmt.Errorf("idempotency_key del body y header %s no coinciden", HeaderIdempotencyKey)
	}
	return body, nil
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id debe ser un UUID"})
	}
	out, err := h.queries.GetMovement(c.UserContext(), GetScope(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListBalances godoc
// @Summary      Listar saldos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Filtrar por producto"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.BalanceListResponse
// @Router       /api/inventory/balances [get]
func (h *InventoryHandler) ListBalances(c *fiber.Ctx) error {
	page, ok, err := parsePage(c, dto.DefaultLimit)
	if !ok {
		return err
	}
	f := repository.BalanceFilter{
		ProductID:   strings.TrimSpace(c.Query("product_id")),
		WarehouseID: strings.TrimSpace(c.Query("warehouse_id")),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	for _, v := range []string{f.ProductID, f.WarehouseID} {
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id deben ser UUID"})
		}
	}
	out, err := h.queries.ListBalances(c.UserContext(), GetScope(c), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Kardex godoc
// @Summary      Kardex de un producto
// @Description  Movimientos del producto del más reciente al más antiguo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.KardexResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/kardex/{product_id} [get]
func (h *InventoryHandler) Kardex(c *fiber.Ctx) error {
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id debe ser un UUID"})
	}
	page, ok, err := parsePage(c, dto.DefaultKardexLimit)
	if !ok {
		return err
	}
	out, err := h.queries.Kardex(c.UserContext(), GetScope(c), productID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// KardexPDF godoc
// @Summary      Kardex en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/kardex/{product_id}/pdf [get]
func (h *InventoryHandler) KardexPDF(c *fiber.Ctx) error {
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id debe ser un UUID"})
	}
	pdf, err := h.queries.KardexPDF(c.UserContext(), GetScope(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="kardex-%s.pdf"`, productID))
	return c.Send(pdf)
}

func uuidParam(c *fiber.Ctx, name string) (string, bool) {
	v := strings.TrimSpace(c.Params(name))
	if _, err := uuid.Parse(v); err != nil {
		return "", false
	}
	return v, true
}
