package mid

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/hamidoujand/roster/internal/errs"
	"github.com/hamidoujand/roster/pkg/logger"
)

var translator ut.Translator

func init() {
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")

	//gin validates bindings with its own validator, teach it english and json names.
	if validate, ok := binding.Validator.Engine().(*validator.Validate); ok {
		en_translations.RegisterDefaultTranslations(validate, translator)
		validate.RegisterTagNameFunc(formOrJSONName)
	}
}

// Errors turns the last error pushed with c.Error into a json response.
func Errors(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		ctx := c.Request.Context()
		err := c.Errors.Last().Err

		var verrs validator.ValidationErrors

		switch {
		case errs.IsError(err):
			appErr := errs.GetError(err)
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(ctx, "handling request", "err", appErr.Message, "fileName", appErr.FileName, "funcName", appErr.FuncName)

				//do not leak internals to the client.
				c.JSON(appErr.Code, errs.Error{Code: appErr.Code, Message: http.StatusText(appErr.Code)})
				return
			}

			c.JSON(appErr.Code, appErr)

		case errors.As(err, &verrs):
			c.JSON(http.StatusBadRequest, errs.NewValidationErr(http.StatusBadRequest, errs.Fields(verrs, translator)))

		default:
			log.Error(ctx, "unknown error", "err", err.Error())
			c.JSON(http.StatusInternalServerError, errs.Error{
				Code:    http.StatusInternalServerError,
				Message: http.StatusText(http.StatusInternalServerError),
			})
		}
	}
}
