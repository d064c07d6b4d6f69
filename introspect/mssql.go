package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/schema"
)

// MSSQLIntrospector reads a SQL Server schema into a snapshot.
type MSSQLIntrospector struct {
	db *sql.DB
}

// Snapshot implements Introspector.
func (i *MSSQLIntrospector) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	snapshot := schema.New()

	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	type tableName struct {
		schema string
		name   string
	}
	var names []tableName
	for rows.Next() {
		var t tableName
		if err := rows.Scan(&t.schema, &t.name); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		names = append(names, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range names {
		tableID := snapshot.AddTable(t.schema, t.name)
		if err := i.introspectColumns(ctx, snapshot, tableID, t.schema, t.name); err != nil {
			return nil, fmt.Errorf("columns of %s.%s: %w", t.schema, t.name, err)
		}
		if err := i.introspectPrimaryKey(ctx, snapshot, tableID, t.schema, t.name); err != nil {
			return nil, fmt.Errorf("primary key of %s.%s: %w", t.schema, t.name, err)
		}
	}

	if err := i.introspectViews(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("introspecting views: %w", err)
	}

	return snapshot, nil
}

func (i *MSSQLIntrospector) introspectColumns(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, schemaName, tableName string) error {
	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT,
			c.CHARACTER_MAXIMUM_LENGTH,
			COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity') AS IS_IDENTITY
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1
		  AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
	`

	rows, err := i.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, isNullable string
		var defaultValue sql.NullString
		var maxLength sql.NullInt64
		var isIdentity sql.NullInt64
		if err := rows.Scan(&name, &dataType, &isNullable, &defaultValue, &maxLength, &isIdentity); err != nil {
			return fmt.Errorf("scanning column: %w", err)
		}

		column := schema.Column{
			Name:          name,
			Type:          mapMSSQLType(dataType, maxLength),
			AutoIncrement: isIdentity.Valid && isIdentity.Int64 == 1,
		}
		if isNullable == "YES" {
			column.Arity = schema.Nullable
		} else {
			column.Arity = schema.Required
		}
		if defaultValue.Valid {
			column.Default = parseDefault(strings.Trim(defaultValue.String, "()"))
		}

		snapshot.AddColumn(tableID, column)
	}

	return rows.Err()
}

func (i *MSSQLIntrospector) introspectPrimaryKey(ctx context.Context, snapshot *schema.Snapshot, tableID schema.TableID, schemaName, tableName string) error {
	query := `
		SELECT
			kc.name AS constraint_name,
			col.name AS column_name,
			i.type_desc AS index_type
		FROM sys.key_constraints kc
		JOIN sys.indexes i
			ON kc.parent_object_id = i.object_id AND kc.unique_index_id = i.index_id
		JOIN sys.index_columns ic
			ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns col
			ON ic.object_id = col.object_id AND ic.column_id = col.column_id
		WHERE kc.type = 'PK'
		  AND OBJECT_SCHEMA_NAME(kc.parent_object_id) = @p1
		  AND OBJECT_NAME(kc.parent_object_id) = @p2
		ORDER BY ic.key_ordinal
	`

	rows, err := i.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return fmt.Errorf("querying primary key: %w", err)
	}
	defer rows.Close()

	var pk schema.PrimaryKey
	var clustered bool
	for rows.Next() {
		var constraintName, columnName, indexType string
		if err := rows.Scan(&constraintName, &columnName, &indexType); err != nil {
			return fmt.Errorf("scanning primary key: %w", err)
		}
		pk.Name = constraintName
		clustered = indexType == "CLUSTERED"
		pk.Columns = append(pk.Columns, schema.IndexColumn{Name: columnName, SortOrder: schema.Ascending})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(pk.Columns) > 0 {
		pk.Clustered = &clustered
		snapshot.SetPrimaryKey(tableID, pk)
	}
	return nil
}

func (i *MSSQLIntrospector) introspectViews(ctx context.Context, snapshot *schema.Snapshot) error {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME, VIEW_DEFINITION
		FROM INFORMATION_SCHEMA.VIEWS
		ORDER BY TABLE_SCHEMA, TABLE_NAME
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var definition sql.NullString
		if err := rows.Scan(&schemaName, &name, &definition); err != nil {
			return fmt.Errorf("scanning view: %w", err)
		}
		snapshot.AddView(schema.View{
			Namespace:  schemaName,
			Name:       name,
			Definition: definition.String,
		})
	}

	return rows.Err()
}

// mapMSSQLType maps a SQL Server data type to a snapshot column type.
func mapMSSQLType(dataType string, maxLength sql.NullInt64) schema.ColumnType {
	switch strings.ToLower(dataType) {
	case "tinyint", "smallint", "int":
		return schema.ColumnType{Family: schema.FamilyInt, Native: strings.ToUpper(dataType)}
	case "bigint":
		return schema.ColumnType{Family: schema.FamilyBigInt, Native: "BIGINT"}
	case "real", "float":
		return schema.ColumnType{Family: schema.FamilyFloat, Native: strings.ToUpper(dataType)}
	case "decimal", "numeric", "money", "smallmoney":
		return schema.ColumnType{Family: schema.FamilyDecimal, Native: strings.ToUpper(dataType)}
	case "bit":
		return schema.ColumnType{Family: schema.FamilyBoolean, Native: "BIT"}
	case "char", "varchar", "nchar", "nvarchar":
		t := schema.ColumnType{Family: schema.FamilyString, Native: strings.ToUpper(dataType)}
		if maxLength.Valid && maxLength.Int64 > 0 {
			t.Params = []int{int(maxLength.Int64)}
		}
		return t
	case "text", "ntext":
		return schema.ColumnType{Family: schema.FamilyString, Native: strings.ToUpper(dataType)}
	case "date", "time", "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return schema.ColumnType{Family: schema.FamilyDateTime, Native: strings.ToUpper(dataType)}
	case "binary", "varbinary", "image":
		return schema.ColumnType{Family: schema.FamilyBytes, Native: strings.ToUpper(dataType)}
	case "uniqueidentifier":
		return schema.ColumnType{Family: schema.FamilyUUID, Native: "UNIQUEIDENTIFIER"}
	default:
		return schema.ColumnType{Family: schema.FamilyUnsupported, Native: dataType}
	}
}
