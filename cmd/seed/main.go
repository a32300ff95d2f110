// seed carga un catálogo de demostración (materias primas, un compuesto y sus recepciones)
// en el almacenamiento configurado para probar la API en local.
//
// Uso: go run ./cmd/seed <company_id> [user_id]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

type seedMaterial struct {
	code, name, unit, category string
	composite                  bool
	receipts                   [][2]string // cantidad, costo unitario
}

var catalog = []seedMaterial{
	{code: "HAR-001", name: "Harina de trigo", unit: "kg", category: "materia_prima",
		receipts: [][2]string{{"100", "5"}, {"50", "5.5"}}},
	{code: "AZU-001", name: "Azúcar refinada", unit: "kg", category: "materia_prima",
		receipts: [][2]string{{"80", "3.2"}}},
	{code: "ACE-001", name: "Aceite vegetal", unit: "l", category: "materia_prima"},
	{code: "CER-001", name: "Cera de abejas", unit: "kg", category: "materia_prima"},
	{code: "BAS-001", name: "Base para velas", unit: "kg", category: "compuesto", composite: true},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed <company_id> [user_id]")
		os.Exit(2)
	}
	companyID := os.Args[1]
	userID := "seed"
	if len(os.Args) > 2 {
		userID = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	tx := postgres.NewTxRunner(pool)
	catalogUC := usecase.NewMaterialUseCase(tx, log)
	ledgerUC := inventory.NewLedgerUseCase(tx, lock.NewMemoryLocker(), nil, log)

	ids := make(map[string]string, len(catalog))
	for _, sm := range catalog {
		m, err := catalogUC.Create(ctx, companyID, dto.CreateMaterialRequest{
			Code: sm.code, Name: sm.name, Unit: sm.unit, Category: sm.category, IsComposite: sm.composite,
		})
		if err != nil {
			log.Fatal().Err(err).Str("code", sm.code).Msg("crear material")
		}
		ids[sm.code] = m.ID
		for _, r := range sm.receipts {
			_, err := ledgerUC.ReceiveFromRequest(ctx, companyID, userID, dto.ReceiveRequest{
				MaterialID: m.ID,
				Quantity:   decimal.RequireFromString(r[0]),
				UnitCost:   decimal.RequireFromString(r[1]),
			})
			if err != nil {
				log.Fatal().Err(err).Str("code", sm.code).Msg("recepción")
			}
		}
	}

	for code, ratio := range map[string]string{"ACE-001": "0.6", "CER-001": "0.3"} {
		_, err := catalogUC.CreateComposition(ctx, companyID, ids["BAS-001"], dto.CreateCompositionRequest{
			ComponentMaterialID: ids[code], ComponentType: code[:3], Ratio: decimal.RequireFromString(ratio),
		})
		if err != nil {
			log.Fatal().Err(err).Str("component", code).Msg("composición")
		}
	}
	res, err := ledgerUC.ReceiveFromRequest(ctx, companyID, userID, dto.ReceiveRequest{
		MaterialID: ids["BAS-001"],
		Quantity:   decimal.NewFromInt(20),
		UnitCost:   decimal.NewFromInt(12),
		Notes:      "recepción de demostración",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("recepción del compuesto")
	}

	log.Info().
		Str("company_id", companyID).
		Int("materials", len(ids)).
		Int("component_batches", len(res.Batches)).
		Msg("catálogo de demostración cargado")
}
