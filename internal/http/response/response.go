// Package response содержит единый конверт JSON-ответов API.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response стандартный конверт ответа.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// OK возвращает успешный ответ без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// OKWithData возвращает успешный ответ с полезной нагрузкой.
func OKWithData(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// Error возвращает ответ с сообщением об ошибке.
func Error(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}

// ValidationError собирает ошибки валидатора в один ответ.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is below the allowed minimum", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s has an unsupported value", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
