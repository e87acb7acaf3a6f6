package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/repositories"
	"github.com/Dosada05/raffle-system/storage"
)

type CreateProductInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	MarketValue int     `json:"market_value"`
}

type UpdateProductInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	MarketValue *int    `json:"market_value"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProductByID(ctx context.Context, id int) (*models.Product, error)
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	UploadImage(ctx context.Context, productID int, contentType string, file io.Reader) (*models.Product, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	uploader    storage.FileUploader
}

func NewProductService(productRepo repositories.ProductRepository, uploader storage.FileUploader) ProductService {
	return &productService{
		productRepo: productRepo,
		uploader:    uploader,
	}
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrValidationFailed)
	}
	if input.MarketValue < 0 {
		return nil, fmt.Errorf("%w: market value cannot be negative", ErrValidationFailed)
	}

	product := &models.Product{
		Name:        name,
		Description: input.Description,
		MarketValue: input.MarketValue,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrProductNameConflict) {
			return nil, ErrProductNameConflict
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}
	populateProductImageURL(product, s.uploader)
	return product, nil
}

func (s *productService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	for i := range products {
		populateProductImageURL(&products[i], s.uploader)
	}
	return products, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int, input UpdateProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product name is required", ErrValidationFailed)
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.MarketValue != nil {
		if *input.MarketValue < 0 {
			return nil, fmt.Errorf("%w: market value cannot be negative", ErrValidationFailed)
		}
		product.MarketValue = *input.MarketValue
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrProductNameConflict) {
			return nil, ErrProductNameConflict
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	populateProductImageURL(product, s.uploader)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int) error {
	err := s.productRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}

func (s *productService) UploadImage(ctx context.Context, productID int, contentType string, file io.Reader) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("products/%d/image", productID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}

	if err := s.productRepo.UpdateImageKey(ctx, productID, &result.Key); err != nil {
		return nil, err
	}
	product.ImageKey = &result.Key
	populateProductImageURL(product, s.uploader)
	return product, nil
}
