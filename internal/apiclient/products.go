package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/example/ec-storefront/internal/domain/product"
)

// Image is an uploaded product picture
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

func productPath(id int64) string {
	return "/product/" + strconv.FormatInt(id, 10)
}

// ListProducts fetches the whole catalog
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	body, err := c.getJSON(ctx, "/product", nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[product.Product](body)
}

func (c *Client) GetProduct(ctx context.Context, id int64) (product.Product, error) {
	body, err := c.getJSON(ctx, productPath(id), nil)
	if err != nil {
		return product.Product{}, err
	}
	return DecodeObject[product.Product](body)
}

// ProductImage returns the raw image bytes and their content type
func (c *Client) ProductImage(ctx context.Context, id int64) ([]byte, string, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: productPath(id) + "/image"})
	if err != nil {
		return nil, "", err
	}
	return resp.body, resp.header.Get("Content-Type"), nil
}

func (c *Client) SearchProducts(ctx context.Context, keyword string) ([]product.Product, error) {
	body, err := c.getJSON(ctx, "/product/search", url.Values{"keyword": {keyword}})
	if err != nil {
		return nil, err
	}
	return DecodeList[product.Product](body)
}

// CreateProduct uploads a new product with its image. When the backend
// answers with an empty body, p is returned unchanged.
func (c *Client) CreateProduct(ctx context.Context, p product.Product, image Image) (product.Product, error) {
	body, contentType, err := productForm(p, &image)
	if err != nil {
		return product.Product{}, err
	}
	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/product", body: body, contentType: contentType})
	if err != nil {
		return product.Product{}, err
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return p, nil
	}
	return DecodeObject[product.Product](resp.body)
}

// UpdateProduct replaces a product. A nil image keeps the stored one.
func (c *Client) UpdateProduct(ctx context.Context, id int64, p product.Product, image *Image) error {
	body, contentType, err := productForm(p, image)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, request{method: http.MethodPut, path: productPath(id), body: body, contentType: contentType})
	return err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: productPath(id)})
	return err
}

// productForm builds the multipart body: a JSON "product" part and an
// optional "imageFile" part.
func productForm(p product.Product, image *Image) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	p.ImageData = ""
	data, err := json.Marshal(p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode product: %w", err)
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="product"; filename="product.json"`)
	header.Set("Content-Type", "application/json")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	if image != nil && len(image.Data) > 0 {
		contentType := image.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(image.Data)
		}
		name := image.Name
		if name == "" {
			name = "image"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imageFile"; filename=%q`, name))
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
