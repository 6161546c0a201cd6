// seed_stock carga saldos iniciales desde un CSV exportado del sistema anterior.
// Cada fila se registra como un ajuste "add" con motivo "saldo inicial", de modo que
// el ledger explique el stock cargado.
//
// Uso: go run ./cmd/seed_stock [ruta/saldos.csv] [actor]
// Formato (con encabezado, separador ';', codificación Windows-1252 o UTF-8):
//
//	product_id;location_id;quantity
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const seedReason = "saldo inicial"

type seedRow struct {
	line       int
	productID  string
	locationID string
	quantity   int64
}

func main() {
	csvPath := "saldos.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	actor := "seed_stock"
	if len(os.Args) > 2 {
		actor = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed_stock")

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", csvPath).Msg("abrir CSV")
	}
	rows, err := parseRows(decode(raw))
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	uc := inventory.NewLedgerUseCase(
		postgres.NewTxRunner(pool),
		postgres.NewStockLevelRepository(pool),
		postgres.NewStockMovementRepository(pool),
		log,
		10*time.Second,
	)

	var loaded, failed int
	for _, r := range rows {
		res, err := uc.AdjustStock(ctx, inventory.AdjustStockInput{
			ProductID:  r.productID,
			LocationID: r.locationID,
			Quantity:   r.quantity,
			Mode:       entity.AdjustmentAdd,
			Reason:     seedReason,
			Actor:      actor,
		})
		if err != nil {
			failed++
			log.Error().Err(err).Int("line", r.line).Str("product_id", r.productID).Msg("fila rechazada")
			continue
		}
		loaded++
		log.Debug().Int("line", r.line).Int64("new_quantity", res.NewQuantity).Msg("saldo cargado")
	}
	log.Info().Int("loaded", loaded).Int("failed", failed).Msg("carga finalizada")
	if failed > 0 {
		os.Exit(1)
	}
}

// decode convierte a UTF-8 los archivos exportados en Windows-1252.
func decode(raw []byte) io.Reader {
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.Windows1252.NewDecoder())
}

// parseRows lee el CSV; omite filas vacías y con cantidad 0.
func parseRows(r io.Reader) ([]seedRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 3

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	if !strings.EqualFold(strings.TrimPrefix(header[0], "\ufeff"), "product_id") {
		return nil, fmt.Errorf("encabezado inesperado: %v", header)
	}

	var rows []seedRow
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("línea %d: cantidad inválida %q", line, rec[2])
		}
		if qty == 0 {
			continue
		}
		rows = append(rows, seedRow{
			line:       line,
			productID:  strings.TrimSpace(rec[0]),
			locationID: strings.TrimSpace(rec[1]),
			quantity:   qty,
		})
	}
	return rows, nil
}
