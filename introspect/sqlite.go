package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/schemadrift/schemadrift/schema"
)

// SQLiteIntrospector reads a SQLite schema into a snapshot using PRAGMA
// statements.
type SQLiteIntrospector struct {
	db *sql.DB
}

// Snapshot implements Introspector.
func (i *SQLiteIntrospector) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	snapshot := schema.New()

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, name := range names {
		tableID := snapshot.AddTable("", name)
		if err := i.introspectColumns(ctx, snapshot, tableID, name); err != nil {
			return nil, fmt.Errorf("columns of %s: %w", name, err)
		}
		if err := i.introspectIndexes(ctx, snapshot, tableID, name); err != nil {
			return nil, fmt.Errorf("indexes of %s: %w", name, err)
		}
		if err := i.introspectForeignKeys(ctx, snapshot, tableID, name); err != nil {
			return nil, fmt.Errorf("foreign keys of %s: %w", name, err)
		}
	}

	return snapshot, nil
}

func (i *SQLiteIntrospector) introspectColumns(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, tableName string) error {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", sqliteQuote(tableName)))
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	// pk position > 0 marks primary key membership, ordered by the value.
	type pkColumn struct {
		name     string
		position int
	}
	var pkColumns []pkColumn

	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return fmt.Errorf("scanning column: %w", err)
		}

		column := schema.Column{
			Name: name,
			Type: mapSQLiteType(colType),
		}
		if notNull == 0 {
			column.Arity = schema.Nullable
		} else {
			column.Arity = schema.Required
		}
		if defaultValue.Valid {
			column.Default = parseDefault(defaultValue.String)
		}
		// Only INTEGER PRIMARY KEY columns alias the rowid.
		if pk == 1 && strings.EqualFold(colType, "INTEGER") {
			column.AutoIncrement = true
		}

		snapshot.AddColumn(tableID, column)

		if pk > 0 {
			pkColumns = append(pkColumns, pkColumn{name: name, position: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(pkColumns) > 0 {
		sort.Slice(pkColumns, func(a, b int) bool { return pkColumns[a].position < pkColumns[b].position })
		names := make([]string, len(pkColumns))
		for idx, col := range pkColumns {
			names[idx] = col.name
		}
		snapshot.SetPrimaryKey(tableID, schema.PrimaryKey{
			Columns: sortedIndexColumns(names),
		})
	}

	return nil
}

func (i *SQLiteIntrospector) introspectIndexes(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, tableName string) error {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", sqliteQuote(tableName)))
	if err != nil {
		return fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	type indexMeta struct {
		name   string
		unique bool
	}
	var metas []indexMeta
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("scanning index: %w", err)
		}
		// Autoindexes back PKs and inline UNIQUEs; only named indexes
		// appear in the snapshot.
		if origin == "pk" {
			continue
		}
		metas = append(metas, indexMeta{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, meta := range metas {
		columns, err := i.indexColumns(ctx, meta.name)
		if err != nil {
			return fmt.Errorf("columns of index %s: %w", meta.name, err)
		}
		snapshot.AddIndex(tableID, schema.Index{
			Name:    meta.name,
			Columns: sortedIndexColumns(columns),
			Unique:  meta.unique,
		})
	}
	return nil
}

func (i *SQLiteIntrospector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", sqliteQuote(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

func (i *SQLiteIntrospector) introspectForeignKeys(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, tableName string) error {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", sqliteQuote(tableName)))
	if err != nil {
		return fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	// One row per column; group by id. SQLite foreign keys are unnamed.
	var order []int
	fks := make(map[int]*schema.ForeignKey)

	for rows.Next() {
		var id, seq int
		var table, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("scanning foreign key: %w", err)
		}
		fk, seen := fks[id]
		if !seen {
			fk = &schema.ForeignKey{
				ReferencedTable: table,
				OnUpdate:        parseForeignKeyAction(onUpdate),
				OnDelete:        parseForeignKeyAction(onDelete),
			}
			fks[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sort.Ints(order)
	for _, id := range order {
		snapshot.AddForeignKey(tableID, *fks[id])
	}
	return nil
}

func sqliteQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// mapSQLiteType maps a declared type to a snapshot column type following
// SQLite's affinity rules.
func mapSQLiteType(declared string) schema.ColumnType {
	upper := strings.ToUpper(declared)

	switch {
	case strings.Contains(upper, "BIGINT"):
		return schema.ColumnType{Family: schema.FamilyBigInt, Native: "BIGINT"}
	case strings.Contains(upper, "INT"):
		return schema.ColumnType{Family: schema.FamilyInt, Native: "INTEGER"}
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "TEXT"), strings.Contains(upper, "CLOB"):
		return schema.ColumnType{Family: schema.FamilyString, Native: "TEXT"}
	case strings.Contains(upper, "BLOB"), upper == "":
		return schema.ColumnType{Family: schema.FamilyBytes, Native: "BLOB"}
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return schema.ColumnType{Family: schema.FamilyFloat, Native: "REAL"}
	case strings.Contains(upper, "NUMERIC"), strings.Contains(upper, "DECIMAL"):
		return schema.ColumnType{Family: schema.FamilyDecimal, Native: "NUMERIC"}
	case strings.Contains(upper, "BOOL"):
		return schema.ColumnType{Family: schema.FamilyBoolean, Native: "BOOLEAN"}
	case strings.Contains(upper, "DATE"), strings.Contains(upper, "TIME"):
		return schema.ColumnType{Family: schema.FamilyDateTime, Native: upper}
	default:
		return schema.ColumnType{Family: schema.FamilyUnsupported, Native: declared}
	}
}
