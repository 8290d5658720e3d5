package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			tag = strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		}
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// parseBody decodifica el JSON del body en dest y lo valida. Si falla escribe la respuesta 400
// y devuelve ok=false junto con el error de escritura.
func parseBody(c *fiber.Ctx, dest any) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return validateStruct(c, dest)
}

// parsePage lee limit/offset del query string aplicando def y el máximo.
func parsePage(c *fiber.Ctx, def int) (dto.PageRequest, bool, error) {
	var p dto.PageRequest
	if err := c.QueryParser(&p); err != nil {
		return p, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit y offset deben ser enteros"})
	}
	if p.Offset < 0 {
		return p, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "offset no puede ser negativo"})
	}
	p.Normalize(def)
	return p, true, nil
}

func validateStruct(c *fiber.Ctx, dest any) (bool, error) {
	if err := validate.Struct(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(validationResponse(err))
	}
	return true, nil
}

func validationResponse(err error) dto.ErrorResponse {
	resp := dto.ErrorResponse{Code: "VALIDATION", Message: "validación fallida"}
	if errs, ok := err.(validator.ValidationErrors); ok {
		resp.Details = make(map[string]string, len(errs))
		for _, fe := range errs {
			resp.Details[fe.Field()] = validationMessage(fe)
		}
	}
	return resp
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "min":
		return fmt.Sprintf("mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("máximo %s", fe.Param())
	case "uuid":
		return "debe ser un UUID"
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	}
	return "inválido"
}
