// seed_catalog genera un script SQL para poblar los catálogos que usa el motor de stock
// (locations y products) a partir de CSV exportados del ERP en Windows-1252.
//
// Uso: go run ./cmd/seed_catalog -locations sedes.csv -products productos.csv
// Formato: code;name para sedes y sku;name para productos, con encabezado opcional.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_catalog.sql
//
// Con -token-role imprime además un token JWT de desarrollo firmado con JWT_SECRET.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-stock-engine/pkg/config"
	"github.com/jhoicas/pos-stock-engine/pkg/jwt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// catalogRow fila de catálogo: código (o SKU) y nombre.
type catalogRow struct {
	ID   string
	Code string
	Name string
}

func main() {
	locationsPath := flag.String("locations", "", "CSV de sedes/bodegas (code;name)")
	productsPath := flag.String("products", "", "CSV de productos (sku;name)")
	outFlag := flag.String("out", "", "ruta del script SQL de salida")
	tokenRole := flag.String("token-role", "", "emite un token de desarrollo con este rol (admin|bodeguero|vendedor)")
	tokenLocation := flag.String("token-location", "", "location_id del token de desarrollo")
	flag.Parse()

	if *locationsPath == "" && *productsPath == "" && *tokenRole == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *locationsPath != "" || *productsPath != "" {
		locations, err := readCatalogFile(*locationsPath, "loc")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer sedes: %v\n", err)
			os.Exit(1)
		}
		products, err := readCatalogFile(*productsPath, "prod")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer productos: %v\n", err)
			os.Exit(1)
		}

		outPath := *outFlag
		if outPath == "" {
			outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_catalog.sql")
		}
		out, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer out.Close()

		if err := writeSQL(out, locations, products); err != nil {
			fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generado %s: %d sedes, %d productos\n", outPath, len(locations), len(products))
	}

	if *tokenRole != "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
			os.Exit(1)
		}
		token, err := jwt.Generate(cfg.JWT.Secret, cfg.JWT.Issuer, jwt.Identity{
			UserID:     "dev-" + *tokenRole,
			LocationID: *tokenLocation,
			Role:       *tokenRole,
		}, 8*60)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
	}
}

func readCatalogFile(path, kind string) ([]catalogRow, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCatalog(f, kind)
}

// parseCatalog decodifica Windows-1252 y lee filas code;name. El ID es determinístico
// (UUID v5 sobre kind:code) para que regenerar el script no duplique filas.
func parseCatalog(r io.Reader, kind string) ([]catalogRow, error) {
	reader := csv.NewReader(transform.NewReader(r, charmap.Windows1252.NewDecoder()))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []catalogRow
	seen := make(map[string]bool)
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("línea %d: se esperaban 2 columnas", line)
		}
		code := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if line == 1 && (strings.EqualFold(code, "code") || strings.EqualFold(code, "sku")) {
			continue
		}
		if code == "" || name == "" || seen[code] {
			continue
		}
		seen[code] = true
		rows = append(rows, catalogRow{
			ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+code)).String(),
			Code: code,
			Name: name,
		})
	}
	return rows, nil
}

func writeSQL(w io.Writer, locations, products []catalogRow) error {
	var b strings.Builder
	b.WriteString("-- Catálogo base del motor de stock\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	if len(locations) > 0 {
		b.WriteString("-- 1. Sedes y bodegas\n")
		b.WriteString("INSERT INTO locations (id, code, name) VALUES\n")
		for i, l := range locations {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s')", l.ID, escapeSQL(l.Code), escapeSQL(l.Name))
			if i < len(locations)-1 {
				b.WriteString(",\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = now();\n\n")
	}

	if len(products) > 0 {
		b.WriteString("-- 2. Productos\n")
		b.WriteString("INSERT INTO products (id, sku, name) VALUES\n")
		for i, p := range products {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s')", p.ID, escapeSQL(p.Code), escapeSQL(p.Name))
			if i < len(products)-1 {
				b.WriteString(",\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
