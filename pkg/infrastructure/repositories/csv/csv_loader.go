package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/infrastructure/repositories/memory"
)

// Loader populates a memory gateway from a directory of warehouse CSV
// files. Rows reference each other by name or barcode; the loader
// resolves them to ids while loading.
type Loader struct {
	gw *memory.Gateway

	locations map[string]*entities.Location // by name
	products  map[string]*entities.Product  // by barcode
	lots      map[string]*entities.Lot      // by product barcode + name
	packages  map[string]*entities.Package  // by name
	transfers map[string]*entities.Transfer // by name
}

// NewLoader creates a CSV loader targeting the gateway
func NewLoader(gw *memory.Gateway) *Loader {
	return &Loader{
		gw:        gw,
		locations: make(map[string]*entities.Location),
		products:  make(map[string]*entities.Product),
		lots:      make(map[string]*entities.Lot),
		packages:  make(map[string]*entities.Package),
		transfers: make(map[string]*entities.Transfer),
	}
}

// LoadDataset loads a full dataset directory. locations.csv and
// products.csv are required; the remaining files are loaded when
// present.
func (l *Loader) LoadDataset(dir string) error {
	if err := l.LoadLocations(filepath.Join(dir, "locations.csv")); err != nil {
		return err
	}
	if err := l.LoadProducts(filepath.Join(dir, "products.csv")); err != nil {
		return err
	}
	optional := []struct {
		name string
		load func(string) error
	}{
		{"lots.csv", l.LoadLots},
		{"packages.csv", l.LoadPackages},
		{"stock.csv", l.LoadStock},
		{"transfers.csv", l.LoadTransfers},
		{"demand.csv", l.LoadDemand},
	}
	for _, f := range optional {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := f.load(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadLocations loads the location tree. Rows must list parents before
// children.
func (l *Loader) LoadLocations(filename string) error {
	records, err := readFile(filename, []string{"name", "barcode", "parent"})
	if err != nil {
		return err
	}

	for i, record := range records {
		name, barcode, parentName := record[0], record[1], record[2]
		var parent *entities.Location
		if parentName != "" {
			parent = l.locations[parentName]
			if parent == nil {
				return fmt.Errorf("locations CSV row %d: unknown parent %q", i+2, parentName)
			}
		}
		loc, err := entities.NewLocation(name, barcode, parent)
		if err != nil {
			return fmt.Errorf("locations CSV row %d: %w", i+2, err)
		}
		l.gw.AddLocation(loc)
		l.locations[name] = loc
	}
	return nil
}

// LoadProducts loads products, with zero or more packaging barcodes
// per row in "barcode:name:qty" form separated by pipes
func (l *Loader) LoadProducts(filename string) error {
	records, err := readFile(filename, []string{"name", "barcode", "tracking", "packagings"})
	if err != nil {
		return err
	}

	for i, record := range records {
		tracking, err := parseTracking(record[2])
		if err != nil {
			return fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		product, err := entities.NewProduct(record[0], record[1], tracking)
		if err != nil {
			return fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		if record[3] != "" {
			for _, entry := range strings.Split(record[3], "|") {
				parts := strings.Split(entry, ":")
				if len(parts) != 3 {
					return fmt.Errorf("products CSV row %d: packaging %q must be barcode:name:qty", i+2, entry)
				}
				qty, err := decimal.NewFromString(parts[2])
				if err != nil {
					return fmt.Errorf("products CSV row %d: invalid packaging quantity %q", i+2, parts[2])
				}
				if err := product.AddPackaging(parts[0], parts[1], qty); err != nil {
					return fmt.Errorf("products CSV row %d: %w", i+2, err)
				}
			}
		}
		l.gw.AddProduct(product)
		l.products[product.Barcode] = product
	}
	return nil
}

// LoadLots loads tracked lots
func (l *Loader) LoadLots(filename string) error {
	records, err := readFile(filename, []string{"product_barcode", "name"})
	if err != nil {
		return err
	}

	for i, record := range records {
		product := l.products[record[0]]
		if product == nil {
			return fmt.Errorf("lots CSV row %d: unknown product %q", i+2, record[0])
		}
		lot, err := entities.NewLot(product.ID, record[1])
		if err != nil {
			return fmt.Errorf("lots CSV row %d: %w", i+2, err)
		}
		l.gw.AddLot(lot)
		l.lots[lotKey(record[0], record[1])] = lot
	}
	return nil
}

// LoadPackages loads the movable packages
func (l *Loader) LoadPackages(filename string) error {
	records, err := readFile(filename, []string{"name", "location"})
	if err != nil {
		return err
	}

	for i, record := range records {
		loc := l.locations[record[1]]
		if loc == nil {
			return fmt.Errorf("packages CSV row %d: unknown location %q", i+2, record[1])
		}
		pkg, err := entities.NewPackage(record[0], loc.ID)
		if err != nil {
			return fmt.Errorf("packages CSV row %d: %w", i+2, err)
		}
		l.gw.AddPackage(pkg)
		l.packages[pkg.Name] = pkg
	}
	return nil
}

// LoadStock loads the on-hand ledger
func (l *Loader) LoadStock(filename string) error {
	records, err := readFile(filename, []string{"location", "product_barcode", "lot", "package", "quantity"})
	if err != nil {
		return err
	}

	for i, record := range records {
		loc := l.locations[record[0]]
		if loc == nil {
			return fmt.Errorf("stock CSV row %d: unknown location %q", i+2, record[0])
		}
		product := l.products[record[1]]
		if product == nil {
			return fmt.Errorf("stock CSV row %d: unknown product %q", i+2, record[1])
		}
		lotID, err := l.lotID(record[1], record[2])
		if err != nil {
			return fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		var packageID uuid.UUID
		if record[3] != "" {
			pkg := l.packages[record[3]]
			if pkg == nil {
				return fmt.Errorf("stock CSV row %d: unknown package %q", i+2, record[3])
			}
			packageID = pkg.ID
		}
		qty, err := decimal.NewFromString(record[4])
		if err != nil {
			return fmt.Errorf("stock CSV row %d: invalid quantity %q", i+2, record[4])
		}
		l.gw.AddStock(memory.Quant{
			LocationID: loc.ID,
			PackageID:  packageID,
			ProductID:  product.ID,
			LotID:      lotID,
			Qty:        qty,
		})
	}
	return nil
}

// LoadTransfers loads the transfer documents
func (l *Loader) LoadTransfers(filename string) error {
	records, err := readFile(filename, []string{"name", "source", "dest"})
	if err != nil {
		return err
	}

	for i, record := range records {
		source := l.locations[record[1]]
		if source == nil {
			return fmt.Errorf("transfers CSV row %d: unknown source %q", i+2, record[1])
		}
		dest := l.locations[record[2]]
		if dest == nil {
			return fmt.Errorf("transfers CSV row %d: unknown destination %q", i+2, record[2])
		}
		tr, err := entities.NewTransfer(record[0], source.ID, dest.ID)
		if err != nil {
			return fmt.Errorf("transfers CSV row %d: %w", i+2, err)
		}
		l.gw.AddTransfer(tr)
		l.transfers[tr.Name] = tr
	}
	return nil
}

// LoadDemand loads reserved demand lines onto previously loaded
// transfers
func (l *Loader) LoadDemand(filename string) error {
	records, err := readFile(filename, []string{"transfer", "product_barcode", "lot", "source", "dest", "quantity", "operator"})
	if err != nil {
		return err
	}

	for i, record := range records {
		tr := l.transfers[record[0]]
		if tr == nil {
			return fmt.Errorf("demand CSV row %d: unknown transfer %q", i+2, record[0])
		}
		product := l.products[record[1]]
		if product == nil {
			return fmt.Errorf("demand CSV row %d: unknown product %q", i+2, record[1])
		}
		lotID, err := l.lotID(record[1], record[2])
		if err != nil {
			return fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		source := l.locations[record[3]]
		if source == nil {
			return fmt.Errorf("demand CSV row %d: unknown source %q", i+2, record[3])
		}
		dest := l.locations[record[4]]
		if dest == nil {
			return fmt.Errorf("demand CSV row %d: unknown destination %q", i+2, record[4])
		}
		qty, err := decimal.NewFromString(record[5])
		if err != nil {
			return fmt.Errorf("demand CSV row %d: invalid quantity %q", i+2, record[5])
		}

		line, err := entities.NewDemandLine(tr.ID, product.ID, source.ID, dest.ID, qty)
		if err != nil {
			return fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		line.LotID = lotID
		line.ReservedQty = qty
		line.State = entities.LineReserved
		line.AssignedOperator = record[6]
		l.gw.AddLine(line)
	}
	return nil
}

func (l *Loader) lotID(productBarcode, lotName string) (uuid.UUID, error) {
	if lotName == "" {
		return uuid.Nil, nil
	}
	lot := l.lots[lotKey(productBarcode, lotName)]
	if lot == nil {
		return uuid.Nil, fmt.Errorf("unknown lot %q for product %q", lotName, productBarcode)
	}
	return lot.ID, nil
}

func lotKey(productBarcode, name string) string {
	return productBarcode + "/" + name
}

// readFile reads a CSV file, validates its header and returns the data
// rows
func readFile(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filename)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, records[0])
	}
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}
	return true
}

func parseTracking(s string) (entities.TrackingMode, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return entities.TrackingNone, nil
	case "lot":
		return entities.TrackingLot, nil
	case "serial":
		return entities.TrackingSerial, nil
	default:
		return entities.TrackingNone, fmt.Errorf("invalid tracking %q (expected: none, lot or serial)", s)
	}
}
