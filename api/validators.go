package api

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators подключает собственные правила к валидатору gin
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		// В ошибках используются имена полей из JSON
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})

		v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
			return services.ValidHexColor(fl.Field().String())
		})
		v.RegisterValidation("fireclass", func(fl validator.FieldLevel) bool {
			return models.ValidFireClass(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		})
		v.RegisterValidation("tipocode", func(fl validator.FieldLevel) bool {
			return services.ValidTypeCode(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		})
		v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
			_, err := models.ParseDate(fl.Field().String())
			return err == nil
		})
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obligatorio"
	case "email":
		return "Formato de email inválido"
	case "min":
		return fmt.Sprintf("Debe tener al menos %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("Debe tener como máximo %s caracteres", fe.Param())
	case "gt":
		return "Debe ser un entero positivo"
	case "oneof":
		return "Valor no permitido: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "hexcolor6":
		return "Color inválido: use #RRGGBB"
	case "fireclass":
		return "Clase de fuego inválida: use A, B, C, D o K"
	case "tipocode":
		return "Código inválido: use A-Z, 0-9, _ o - (máximo 20)"
	case "dateonly":
		return "Fecha inválida: use YYYY-MM-DD"
	}
	return "Valor inválido"
}
