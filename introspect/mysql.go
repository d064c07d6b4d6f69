package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/schema"
)

// MySQLIntrospector reads a MySQL or MariaDB schema into a snapshot.
type MySQLIntrospector struct {
	db *sql.DB
}

// Snapshot implements Introspector.
func (i *MySQLIntrospector) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	var dbName string
	if err := i.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return nil, fmt.Errorf("getting database name: %w", err)
	}

	snapshot := schema.New()
	if err := i.introspectTables(ctx, snapshot, dbName); err != nil {
		return nil, fmt.Errorf("introspecting tables: %w", err)
	}
	return snapshot, nil
}

func (i *MySQLIntrospector) introspectTables(ctx context.Context, snapshot *schema.Snapshot, dbName string) error {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := i.db.QueryContext(ctx, query, dbName)
	if err != nil {
		return fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning table: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		// MySQL has no separate namespace below the database, the
		// snapshot uses the empty namespace.
		tableID := snapshot.AddTable("", name)
		if err := i.introspectColumns(ctx, snapshot, tableID, dbName, name); err != nil {
			return fmt.Errorf("columns of %s: %w", name, err)
		}
		if err := i.introspectPrimaryKey(ctx, snapshot, tableID, dbName, name); err != nil {
			return fmt.Errorf("primary key of %s: %w", name, err)
		}
		if err := i.introspectIndexes(ctx, snapshot, tableID, dbName, name); err != nil {
			return fmt.Errorf("indexes of %s: %w", name, err)
		}
		if err := i.introspectForeignKeys(ctx, snapshot, tableID, dbName, name); err != nil {
			return fmt.Errorf("foreign keys of %s: %w", name, err)
		}
	}
	return nil
}

func (i *MySQLIntrospector) introspectColumns(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, dbName, tableName string) error {
	query := `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_default,
			extra
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := i.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, columnType, isNullable, extra string
		var defaultValue sql.NullString
		if err := rows.Scan(&name, &columnType, &isNullable, &defaultValue, &extra); err != nil {
			return fmt.Errorf("scanning column: %w", err)
		}

		column := schema.Column{
			Name:          name,
			Type:          mapMySQLType(columnType, snapshot, tableName, name),
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
		}
		if isNullable == "YES" {
			column.Arity = schema.Nullable
		} else {
			column.Arity = schema.Required
		}
		if defaultValue.Valid {
			column.Default = parseDefault(defaultValue.String)
		}

		snapshot.AddColumn(tableID, column)
	}

	return rows.Err()
}

func (i *MySQLIntrospector) introspectPrimaryKey(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, dbName, tableName string) error {
	query := `
		SELECT GROUP_CONCAT(column_name ORDER BY ordinal_position)
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		GROUP BY constraint_name
	`

	var columnsStr string
	err := i.db.QueryRowContext(ctx, query, dbName, tableName).Scan(&columnsStr)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("querying primary key: %w", err)
	}

	snapshot.SetPrimaryKey(tableID, schema.PrimaryKey{
		Name:    "PRIMARY",
		Columns: sortedIndexColumns(strings.Split(columnsStr, ",")),
	})
	return nil
}

func (i *MySQLIntrospector) introspectIndexes(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, dbName, tableName string) error {
	query := `
		SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) AS columns,
			MAX(non_unique) AS is_non_unique
		FROM information_schema.statistics
		WHERE table_schema = ?
		  AND table_name = ?
		  AND index_name != 'PRIMARY'
		GROUP BY index_name
		ORDER BY index_name
	`

	rows, err := i.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, columnsStr string
		var nonUnique int
		if err := rows.Scan(&name, &columnsStr, &nonUnique); err != nil {
			return fmt.Errorf("scanning index: %w", err)
		}
		snapshot.AddIndex(tableID, schema.Index{
			Name:    name,
			Columns: sortedIndexColumns(strings.Split(columnsStr, ",")),
			Unique:  nonUnique == 0,
		})
	}

	return rows.Err()
}

func (i *MySQLIntrospector) introspectForeignKeys(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, dbName, tableName string) error {
	query := `
		SELECT
			kcu.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) AS columns,
			kcu.referenced_table_name,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position) AS referenced_columns,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.constraint_schema = rc.constraint_schema
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.update_rule, rc.delete_rule
		ORDER BY kcu.constraint_name
	`

	rows, err := i.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, columnsStr, referencedTable, refColumnsStr, onUpdate, onDelete string
		if err := rows.Scan(&name, &columnsStr, &referencedTable, &refColumnsStr, &onUpdate, &onDelete); err != nil {
			return fmt.Errorf("scanning foreign key: %w", err)
		}
		snapshot.AddForeignKey(tableID, schema.ForeignKey{
			ConstraintName:    name,
			Columns:           strings.Split(columnsStr, ","),
			ReferencedTable:   referencedTable,
			ReferencedColumns: strings.Split(refColumnsStr, ","),
			OnUpdate:          parseForeignKeyAction(onUpdate),
			OnDelete:          parseForeignKeyAction(onDelete),
		})
	}

	return rows.Err()
}

// mapMySQLType maps a column_type value to a snapshot column type. MySQL
// enums are inlined in the column type, so each one becomes a synthetic
// enum named after its table and column.
func mapMySQLType(columnType string, snapshot *schema.Snapshot, tableName, columnName string) schema.ColumnType {
	lower := strings.ToLower(columnType)

	switch {
	case strings.HasPrefix(lower, "tinyint(1)"):
		return schema.ColumnType{Family: schema.FamilyBoolean, Native: "BOOLEAN"}
	case strings.HasPrefix(lower, "bigint"):
		return schema.ColumnType{Family: schema.FamilyBigInt, Native: "BIGINT"}
	case strings.HasPrefix(lower, "smallint"), strings.HasPrefix(lower, "mediumint"),
		strings.HasPrefix(lower, "tinyint"), strings.HasPrefix(lower, "int"):
		return schema.ColumnType{Family: schema.FamilyInt, Native: strings.ToUpper(baseType(lower))}
	case strings.HasPrefix(lower, "decimal"), strings.HasPrefix(lower, "numeric"):
		t := schema.ColumnType{Family: schema.FamilyDecimal, Native: "DECIMAL"}
		t.Params = typeParams(lower)
		return t
	case strings.HasPrefix(lower, "float"), strings.HasPrefix(lower, "double"):
		return schema.ColumnType{Family: schema.FamilyFloat, Native: strings.ToUpper(baseType(lower))}
	case strings.HasPrefix(lower, "varchar"), strings.HasPrefix(lower, "char"):
		t := schema.ColumnType{Family: schema.FamilyString, Native: strings.ToUpper(baseType(lower))}
		t.Params = typeParams(lower)
		return t
	case lower == "text", lower == "mediumtext", lower == "longtext", lower == "tinytext":
		return schema.ColumnType{Family: schema.FamilyString, Native: strings.ToUpper(lower)}
	case strings.HasPrefix(lower, "timestamp"), lower == "datetime", lower == "date", lower == "time":
		return schema.ColumnType{Family: schema.FamilyDateTime, Native: strings.ToUpper(baseType(lower))}
	case lower == "json":
		return schema.ColumnType{Family: schema.FamilyJSON, Native: "JSON"}
	case strings.Contains(lower, "blob"), strings.HasPrefix(lower, "binary"), strings.HasPrefix(lower, "varbinary"):
		return schema.ColumnType{Family: schema.FamilyBytes, Native: strings.ToUpper(baseType(lower))}
	case strings.HasPrefix(lower, "enum("):
		enumName := tableName + "_" + columnName
		enumID := snapshot.AddEnum(schema.Enum{
			Name:   enumName,
			Values: parseInlineEnum(columnType),
		})
		return schema.ColumnType{Family: schema.FamilyEnum, Native: enumName, Enum: enumID}
	default:
		return schema.ColumnType{Family: schema.FamilyUnsupported, Native: columnType}
	}
}

// baseType strips the parenthesized parameters off a column_type.
func baseType(columnType string) string {
	if i := strings.Index(columnType, "("); i > 0 {
		return columnType[:i]
	}
	return columnType
}

// typeParams parses the numeric parameters of a column_type, e.g.
// "decimal(10,2)" yields [10 2].
func typeParams(columnType string) []int {
	open := strings.Index(columnType, "(")
	close := strings.Index(columnType, ")")
	if open < 0 || close < open {
		return nil
	}
	var params []int
	for _, part := range strings.Split(columnType[open+1:close], ",") {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &n); err == nil {
			params = append(params, n)
		}
	}
	return params
}

// parseInlineEnum parses the values out of "enum('a','b','c')".
func parseInlineEnum(columnType string) []string {
	open := strings.Index(columnType, "(")
	close := strings.LastIndex(columnType, ")")
	if open < 0 || close < open {
		return nil
	}
	var values []string
	for _, part := range strings.Split(columnType[open+1:close], ",") {
		values = append(values, strings.Trim(strings.TrimSpace(part), "'"))
	}
	return values
}
