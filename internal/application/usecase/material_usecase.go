package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// MaterialUseCase catálogo de materiales y composiciones. El stock no se toca aquí:
// se maneja vía lotes y movimientos.
type MaterialUseCase struct {
	tx  appinv.TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(tx appinv.TxRunner, log *logger.Logger) *MaterialUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &MaterialUseCase{tx: tx, log: log.Component("catalog"), now: time.Now}
}

// Create crea un material. El código es único por empresa.
func (uc *MaterialUseCase) Create(ctx context.Context, companyID string, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" || strings.TrimSpace(in.Unit) == "" {
		return nil, domain.NewValidationError("", "code, name y unit son requeridos")
	}
	now := uc.now()
	material := &entity.Material{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CompanyID:   companyID,
		Code:        in.Code,
		Name:        in.Name,
		Unit:        in.Unit,
		Category:    in.Category,
		IsComposite: in.IsComposite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.tx.Run(ctx, func(r appinv.Repos) error {
		existing, err := r.Materials.GetByCompanyAndCode(ctx, companyID, in.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return r.Materials.Create(ctx, material)
	})
	if err != nil {
		return nil, err
	}
	return toMaterialResponse(material), nil
}

// GetByID obtiene un material de la empresa.
func (uc *MaterialUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.MaterialResponse, error) {
	var out *dto.MaterialResponse
	err := uc.tx.ReadSnapshot(ctx, func(r appinv.Repos) error {
		m, err := ownedMaterial(ctx, r, companyID, id)
		if err != nil {
			return err
		}
		out = toMaterialResponse(m)
		return nil
	})
	return out, err
}

// Update actualiza solo metadatos.
func (uc *MaterialUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	var out *dto.MaterialResponse
	err := uc.tx.Run(ctx, func(r appinv.Repos) error {
		m, err := ownedMaterial(ctx, r, companyID, id)
		if err != nil {
			return err
		}
		if in.Code != nil {
			code := strings.TrimSpace(*in.Code)
			if code == "" {
				return domain.NewValidationError("code", "no puede ser vacío")
			}
			if code != m.Code {
				existing, err := r.Materials.GetByCompanyAndCode(ctx, companyID, code)
				if err != nil {
					return err
				}
				if existing != nil {
					return domain.ErrDuplicate
				}
				m.Code = code
			}
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return domain.NewValidationError("name", "no puede ser vacío")
			}
			m.Name = *in.Name
		}
		if in.Unit != nil {
			m.Unit = *in.Unit
		}
		if in.Category != nil {
			m.Category = *in.Category
		}
		if in.IsComposite != nil {
			m.IsComposite = *in.IsComposite
		}
		m.UpdatedAt = uc.now()
		if err := r.Materials.Update(ctx, m); err != nil {
			return err
		}
		out = toMaterialResponse(m)
		return nil
	})
	return out, err
}

// List lista materiales por empresa con paginación.
func (uc *MaterialUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.MaterialListResponse, error) {
	var list []*entity.Material
	err := uc.tx.ReadSnapshot(ctx, func(r appinv.Repos) error {
		var err error
		list, err = r.Materials.ListByCompany(ctx, companyID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMaterialResponse(m))
	}
	return &dto.MaterialListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// CreateComposition agrega un componente a un material compuesto. Ratio debe ser > 0; la suma
// de ratios activos no se normaliza y si supera 1 solo se registra una advertencia.
func (uc *MaterialUseCase) CreateComposition(ctx context.Context, companyID, compositeID string, in dto.CreateCompositionRequest) (*dto.CompositionResponse, error) {
	if !in.Ratio.IsPositive() {
		return nil, domain.NewValidationError("ratio", "debe ser mayor que cero")
	}
	if err := domaininv.CheckScale("ratio", in.Ratio); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ComponentType) == "" {
		return nil, domain.NewValidationError("component_type", "es requerido")
	}
	if in.ComponentMaterialID == compositeID {
		return nil, domain.NewValidationError("component_material_id", "no puede ser el mismo compuesto")
	}

	c := &entity.MaterialComposition{
		ID:                  uuid.Must(uuid.NewV7()).String(),
		CompositeMaterialID: compositeID,
		ComponentMaterialID: in.ComponentMaterialID,
		ComponentType:       in.ComponentType,
		Ratio:               in.Ratio,
		IsActive:            true,
		CreatedAt:           uc.now(),
	}
	var sum decimal.Decimal
	err := uc.tx.Run(ctx, func(r appinv.Repos) error {
		composite, err := ownedMaterial(ctx, r, companyID, compositeID)
		if err != nil {
			return err
		}
		if !composite.IsComposite {
			return &domain.InvalidStateError{Reason: "el material " + composite.Code + " no está marcado como compuesto"}
		}
		component, err := ownedMaterial(ctx, r, companyID, in.ComponentMaterialID)
		if err != nil {
			return err
		}
		if component.IsComposite {
			return &domain.InvalidStateError{Reason: "un componente no puede ser a su vez compuesto"}
		}
		if err := r.Compositions.Create(ctx, c); err != nil {
			return err
		}
		active, err := r.Compositions.ListActiveByComposite(ctx, compositeID)
		if err != nil {
			return err
		}
		sum = domaininv.RatioSum(active)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sum.GreaterThan(decimal.NewFromInt(1)) {
		uc.log.Warn().
			Str("material_id", compositeID).
			Str("ratio_sum", sum.String()).
			Msg("la suma de ratios activos supera 1")
	}
	return toCompositionResponse(c), nil
}

// ListCompositions composiciones del compuesto (activas e inactivas) y la suma de ratios activos.
func (uc *MaterialUseCase) ListCompositions(ctx context.Context, companyID, compositeID string) (*dto.CompositionListResponse, error) {
	var out *dto.CompositionListResponse
	err := uc.tx.ReadSnapshot(ctx, func(r appinv.Repos) error {
		if _, err := ownedMaterial(ctx, r, companyID, compositeID); err != nil {
			return err
		}
		list, err := r.Compositions.ListByComposite(ctx, compositeID)
		if err != nil {
			return err
		}
		out = &dto.CompositionListResponse{
			Items:    make([]dto.CompositionResponse, 0, len(list)),
			RatioSum: domaininv.RatioSum(list),
		}
		for _, c := range list {
			out.Items = append(out.Items, *toCompositionResponse(c))
		}
		return nil
	})
	return out, err
}

// DeactivateComposition desactiva un componente. Las composiciones no se eliminan.
func (uc *MaterialUseCase) DeactivateComposition(ctx context.Context, companyID, compositeID, compositionID string) error {
	return uc.tx.Run(ctx, func(r appinv.Repos) error {
		if _, err := ownedMaterial(ctx, r, companyID, compositeID); err != nil {
			return err
		}
		c, err := r.Compositions.GetByID(ctx, compositionID)
		if err != nil {
			return err
		}
		if c == nil || c.CompositeMaterialID != compositeID {
			return domain.ErrNotFound
		}
		return r.Compositions.Deactivate(ctx, compositionID)
	})
}

func ownedMaterial(ctx context.Context, r appinv.Repos, companyID, id string) (*entity.Material, error) {
	m, err := r.Materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	if m.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return m, nil
}

func toMaterialResponse(m *entity.Material) *dto.MaterialResponse {
	if m == nil {
		return nil
	}
	return &dto.MaterialResponse{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		Code:        m.Code,
		Name:        m.Name,
		Unit:        m.Unit,
		Category:    m.Category,
		IsComposite: m.IsComposite,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toCompositionResponse(c *entity.MaterialComposition) *dto.CompositionResponse {
	return &dto.CompositionResponse{
		ID:                  c.ID,
		CompositeMaterialID: c.CompositeMaterialID,
		ComponentMaterialID: c.ComponentMaterialID,
		ComponentType:       c.ComponentType,
		Ratio:               c.Ratio,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt,
	}
}
