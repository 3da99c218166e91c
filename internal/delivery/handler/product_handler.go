package handler

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"storefront-api/internal/application/command"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/application/services"
	"storefront-api/internal/domain"
)

const imageField = "image"

type ProductHandler struct {
	products     interfaces.ProductService
	maxImageSize int64
}

func NewProductHandler(products interfaces.ProductService, maxImageSize int64) *ProductHandler {
	if maxImageSize <= 0 {
		maxImageSize = services.DefaultMaxImageSize
	}
	return &ProductHandler{products: products, maxImageSize: maxImageSize}
}

func (h *ProductHandler) Create(c echo.Context) error {
	var createCommand command.CreateProductCommand

	if isMultipart(c) {
		fields, err := c.FormParams()
		if err != nil {
			return fmt.Errorf("%w: malformed form", domain.ErrValidation)
		}
		createCommand.Name = fields.Get("productName")
		createCommand.Description = fields.Get("description")
		if raw := fields.Get("productPrice"); raw != "" {
			price, err := parsePrice(raw)
			if err != nil {
				return err
			}
			createCommand.Price = price
		}
		if createCommand.Image, err = h.readImage(c); err != nil {
			return err
		}
	} else if err := bind(c, &createCommand); err != nil {
		return err
	}

	result, err := h.products.CreateProduct(c.Request().Context(), &createCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Product created", result.Result)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	result, err := h.products.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", result.Result)
}

func (h *ProductHandler) List(c echo.Context) error {
	result, err := h.products.GetProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", result.Result)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	updateCommand := command.UpdateProductCommand{Id: id}

	if isMultipart(c) {
		fields, err := c.FormParams()
		if err != nil {
			return fmt.Errorf("%w: malformed form", domain.ErrValidation)
		}
		if _, ok := fields["productName"]; ok {
			name := fields.Get("productName")
			updateCommand.Name = &name
		}
		if _, ok := fields["description"]; ok {
			description := fields.Get("description")
			updateCommand.Description = &description
		}
		if _, ok := fields["productPrice"]; ok {
			price, err := parsePrice(fields.Get("productPrice"))
			if err != nil {
				return err
			}
			updateCommand.Price = &price
		}
		if updateCommand.Image, err = h.readImage(c); err != nil {
			return err
		}
	} else if err := bind(c, &updateCommand); err != nil {
		return err
	}
	updateCommand.Id = id

	result, err := h.products.UpdateProduct(c.Request().Context(), &updateCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Product updated", result.Result)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	result, err := h.products.DeleteProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, result.Message, nil)
}

// readImage returns nil when the form carries no image. At most one byte
// over the limit is read so the service can reject oversized files.
func (h *ProductHandler) readImage(c echo.Context) (*command.ImageUpload, error) {
	fileHeader, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: malformed image upload", domain.ErrValidation)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open upload: %v", domain.ErrUnexpected, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", domain.ErrUnexpected, err)
	}

	return &command.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func productID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: product not found", domain.ErrNotFound)
	}
	return id, nil
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: productPrice must be a number", domain.ErrValidation)
	}
	return price, nil
}
