package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/schema"
)

// PostgresIntrospector reads a PostgreSQL schema into a snapshot.
type PostgresIntrospector struct {
	db *sql.DB

	// Namespace restricts introspection to one schema. Empty means public.
	Namespace string
}

func (i *PostgresIntrospector) namespace() string {
	if i.Namespace == "" {
		return "public"
	}
	return i.Namespace
}

// Snapshot implements Introspector.
func (i *PostgresIntrospector) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	snapshot := schema.New()

	// Enums come first so columns can resolve their enum ids.
	enums, err := i.introspectEnums(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("introspecting enums: %w", err)
	}

	if err := i.introspectTables(ctx, snapshot, enums); err != nil {
		return nil, fmt.Errorf("introspecting tables: %w", err)
	}

	if err := i.introspectViews(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("introspecting views: %w", err)
	}

	return snapshot, nil
}

func (i *PostgresIntrospector) introspectEnums(ctx context.Context, snapshot *schema.Snapshot) (map[string]schema.EnumID, error) {
	query := `
		SELECT
			t.typname AS enum_name,
			array_agg(e.enumlabel ORDER BY e.enumsortorder) AS enum_values
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		GROUP BY t.typname
		ORDER BY t.typname
	`

	rows, err := i.db.QueryContext(ctx, query, i.namespace())
	if err != nil {
		return nil, fmt.Errorf("querying enums: %w", err)
	}
	defer rows.Close()

	enums := make(map[string]schema.EnumID)
	for rows.Next() {
		var name, valuesArray string
		if err := rows.Scan(&name, &valuesArray); err != nil {
			return nil, fmt.Errorf("scanning enum: %w", err)
		}
		enums[name] = snapshot.AddEnum(schema.Enum{
			Name:   name,
			Values: splitPostgresArray(valuesArray),
		})
	}

	return enums, rows.Err()
}

func (i *PostgresIntrospector) introspectTables(ctx context.Context, snapshot *schema.Snapshot, enums map[string]schema.EnumID) error {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := i.db.QueryContext(ctx, query, i.namespace())
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
		tableID := snapshot.AddTable(i.namespace(), name)
		if err := i.introspectColumns(ctx, snapshot, tableID, name, enums); err != nil {
			return fmt.Errorf("columns of %s: %w", name, err)
		}
		if err := i.introspectPrimaryKey(ctx, snapshot, tableID, name); err != nil {
			return fmt.Errorf("primary key of %s: %w", name, err)
		}
		if err := i.introspectIndexes(ctx, snapshot, tableID, name); err != nil {
			return fmt.Errorf("indexes of %s: %w", name, err)
		}
		if err := i.introspectForeignKeys(ctx, snapshot, tableID, name); err != nil {
			return fmt.Errorf("foreign keys of %s: %w", name, err)
		}
	}
	return nil
}

func (i *PostgresIntrospector) introspectColumns(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, tableName string, enums map[string]schema.EnumID) error {
	query := `
		SELECT
			column_name,
			data_type,
			udt_name,
			is_nullable,
			column_default,
			character_maximum_length,
			numeric_precision,
			numeric_scale
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := i.db.QueryContext(ctx, query, i.namespace(), tableName)
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, udtName, isNullable string
		var defaultValue sql.NullString
		var maxLength, precision, scale sql.NullInt64

		if err := rows.Scan(&name, &dataType, &udtName, &isNullable, &defaultValue, &maxLength, &precision, &scale); err != nil {
			return fmt.Errorf("scanning column: %w", err)
		}

		column := schema.Column{
			Name: name,
			Type: mapPostgresType(dataType, udtName, maxLength, precision, scale, enums),
		}
		if isNullable == "YES" {
			column.Arity = schema.Nullable
		} else {
			column.Arity = schema.Required
		}
		if dataType == "ARRAY" {
			column.Arity = schema.List
		}
		if defaultValue.Valid {
			column.Default = parseDefault(defaultValue.String)
			column.AutoIncrement = strings.Contains(strings.ToLower(defaultValue.String), "nextval(")
		}

		snapshot.AddColumn(tableID, column)
	}

	return rows.Err()
}

func (i *PostgresIntrospector) introspectPrimaryKey(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, tableName string) error {
	query := `
		SELECT
			tc.constraint_name,
			array_agg(kcu.column_name ORDER BY kcu.ordinal_position) AS columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		GROUP BY tc.constraint_name
	`

	var name, columnsArray string
	err := i.db.QueryRowContext(ctx, query, i.namespace(), tableName).Scan(&name, &columnsArray)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("querying primary key: %w", err)
	}

	snapshot.SetPrimaryKey(tableID, schema.PrimaryKey{
		Name:    name,
		Columns: sortedIndexColumns(splitPostgresArray(columnsArray)),
	})
	return nil
}

func (i *PostgresIntrospector) introspectIndexes(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, tableName string) error {
	query := `
		SELECT
			i.relname AS index_name,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS columns,
			ix.indisunique AS is_unique,
			am.amname AS algorithm
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1
		  AND t.relname = $2
		  AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique, am.amname
		ORDER BY i.relname
	`

	rows, err := i.db.QueryContext(ctx, query, i.namespace(), tableName)
	if err != nil {
		return fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, columnsArray, algorithm string
		var unique bool
		if err := rows.Scan(&name, &columnsArray, &unique, &algorithm); err != nil {
			return fmt.Errorf("scanning index: %w", err)
		}
		snapshot.AddIndex(tableID, schema.Index{
			Name:      name,
			Columns:   sortedIndexColumns(splitPostgresArray(columnsArray)),
			Unique:    unique,
			Algorithm: postgresIndexAlgorithm(algorithm),
		})
	}

	return rows.Err()
}

func (i *PostgresIntrospector) introspectForeignKeys(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, tableName string) error {
	query := `
		SELECT
			tc.constraint_name,
			array_agg(kcu.column_name ORDER BY kcu.ordinal_position) AS columns,
			ccu.table_name AS referenced_table,
			array_agg(ccu.column_name ORDER BY kcu.ordinal_position) AS referenced_columns,
			rc.update_rule AS on_update,
			rc.delete_rule AS on_delete
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		GROUP BY tc.constraint_name, ccu.table_name, rc.update_rule, rc.delete_rule
		ORDER BY tc.constraint_name
	`

	rows, err := i.db.QueryContext(ctx, query, i.namespace(), tableName)
	if err != nil {
		return fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, columnsArray, referencedTable, refColumnsArray, onUpdate, onDelete string
		if err := rows.Scan(&name, &columnsArray, &referencedTable, &refColumnsArray, &onUpdate, &onDelete); err != nil {
			return fmt.Errorf("scanning foreign key: %w", err)
		}
		snapshot.AddForeignKey(tableID, schema.ForeignKey{
			ConstraintName:    name,
			Columns:           splitPostgresArray(columnsArray),
			ReferencedTable:   referencedTable,
			ReferencedColumns: splitPostgresArray(refColumnsArray),
			OnUpdate:          parseForeignKeyAction(onUpdate),
			OnDelete:          parseForeignKeyAction(onDelete),
		})
	}

	return rows.Err()
}

func (i *PostgresIntrospector) introspectViews(ctx context.Context, snapshot *schema.Snapshot) error {
	query := `
		SELECT table_name, view_definition
		FROM information_schema.views
		WHERE table_schema = $1
		ORDER BY table_name
	`

	rows, err := i.db.QueryContext(ctx, query, i.namespace())
	if err != nil {
		return fmt.Errorf("querying views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var definition sql.NullString
		if err := rows.Scan(&name, &definition); err != nil {
			return fmt.Errorf("scanning view: %w", err)
		}
		snapshot.AddView(schema.View{
			Namespace:  i.namespace(),
			Name:       name,
			Definition: definition.String,
		})
	}

	return rows.Err()
}

// postgresIndexAlgorithm maps a pg_am access method name to the snapshot
// algorithm value.
func postgresIndexAlgorithm(name string) schema.IndexAlgorithm {
	return schema.IndexAlgorithm(strings.ToUpper(name))
}

// splitPostgresArray parses the {a,b,c} text form of a Postgres array.
func splitPostgresArray(raw string) []string {
	raw = strings.Trim(raw, "{}")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `"`)
	}
	return parts
}

// mapPostgresType maps an information_schema column type to a snapshot
// column type.
func mapPostgresType(dataType, udtName string, maxLength, precision, scale sql.NullInt64, enums map[string]schema.EnumID) schema.ColumnType {
	if dataType == "ARRAY" {
		// The element type is the udt name with a leading underscore.
		dataType = strings.TrimPrefix(udtName, "_")
		udtName = dataType
	}

	switch dataType {
	case "smallint", "int2", "integer", "int", "int4":
		return schema.ColumnType{Family: schema.FamilyInt, Native: strings.ToUpper(dataType)}
	case "bigint", "int8":
		return schema.ColumnType{Family: schema.FamilyBigInt, Native: "BIGINT"}
	case "real", "float4", "double precision", "float8":
		return schema.ColumnType{Family: schema.FamilyFloat, Native: strings.ToUpper(dataType)}
	case "numeric", "decimal":
		t := schema.ColumnType{Family: schema.FamilyDecimal, Native: "DECIMAL"}
		if precision.Valid && scale.Valid {
			t.Params = []int{int(precision.Int64), int(scale.Int64)}
		}
		return t
	case "boolean", "bool":
		return schema.ColumnType{Family: schema.FamilyBoolean, Native: "BOOLEAN"}
	case "character varying", "varchar":
		t := schema.ColumnType{Family: schema.FamilyString, Native: "VARCHAR"}
		if maxLength.Valid {
			t.Params = []int{int(maxLength.Int64)}
		}
		return t
	case "character", "char":
		t := schema.ColumnType{Family: schema.FamilyString, Native: "CHAR"}
		if maxLength.Valid {
			t.Params = []int{int(maxLength.Int64)}
		}
		return t
	case "text":
		return schema.ColumnType{Family: schema.FamilyString, Native: "TEXT"}
	case "timestamp without time zone", "timestamp":
		return schema.ColumnType{Family: schema.FamilyDateTime, Native: "TIMESTAMP"}
	case "timestamp with time zone", "timestamptz":
		return schema.ColumnType{Family: schema.FamilyDateTime, Native: "TIMESTAMPTZ"}
	case "date":
		return schema.ColumnType{Family: schema.FamilyDateTime, Native: "DATE"}
	case "time without time zone", "time":
		return schema.ColumnType{Family: schema.FamilyDateTime, Native: "TIME"}
	case "json":
		return schema.ColumnType{Family: schema.FamilyJSON, Native: "JSON"}
	case "jsonb":
		return schema.ColumnType{Family: schema.FamilyJSON, Native: "JSONB"}
	case "uuid":
		return schema.ColumnType{Family: schema.FamilyUUID, Native: "UUID"}
	case "bytea":
		return schema.ColumnType{Family: schema.FamilyBytes, Native: "BYTEA"}
	case "USER-DEFINED":
		if enumID, ok := enums[udtName]; ok {
			return schema.ColumnType{Family: schema.FamilyEnum, Native: udtName, Enum: enumID}
		}
		return schema.ColumnType{Family: schema.FamilyUnsupported, Native: udtName}
	default:
		if enumID, ok := enums[udtName]; ok {
			return schema.ColumnType{Family: schema.FamilyEnum, Native: udtName, Enum: enumID}
		}
		return schema.ColumnType{Family: schema.FamilyUnsupported, Native: dataType}
	}
}
