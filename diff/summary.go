package diff

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/schema"
)

// DriftSummary groups a migration's steps by affected object, for display.
type DriftSummary struct {
	AddedTables     []string
	RemovedTables   []string
	RedefinedTables []string
	AddedEnums      []string
	RemovedEnums    []string
	ChangedEnums    []string
	ChangedTables   []TableDrift

	empty bool
}

// TableDrift lists the changes to one table.
type TableDrift struct {
	Name    string
	Changes []string
}

// Summarize groups the migration's steps into a DriftSummary.
func Summarize(m *Migration) DriftSummary {
	summary := DriftSummary{empty: len(m.Steps) == 0}
	tableChanges := make(map[string]*TableDrift)
	var tableOrder []string

	forTable := func(name string) *TableDrift {
		if drift, ok := tableChanges[name]; ok {
			return drift
		}
		drift := &TableDrift{Name: name}
		tableChanges[name] = drift
		tableOrder = append(tableOrder, name)
		return drift
	}

	for _, step := range m.Steps {
		switch s := step.(type) {
		case CreateTable:
			summary.AddedTables = append(summary.AddedTables, m.After.Table(s.Table).Name())
		case DropTable:
			summary.RemovedTables = append(summary.RemovedTables, m.Before.Table(s.Table).Name())
		case RedefineTables:
			for _, table := range s.Tables {
				summary.RedefinedTables = append(summary.RedefinedTables, m.After.Table(table.Tables.Next).Name())
			}
		case CreateEnum:
			summary.AddedEnums = append(summary.AddedEnums, m.After.Enum(s.Enum).Name())
		case DropEnum:
			summary.RemovedEnums = append(summary.RemovedEnums, m.Before.Enum(s.Enum).Name())
		case AlterEnum:
			summary.ChangedEnums = append(summary.ChangedEnums, m.After.Enum(s.Enums.Next).Name())
		case AlterTable:
			drift := forTable(m.After.Table(s.Tables.Next).Name())
			for _, change := range s.Changes {
				drift.Changes = append(drift.Changes, describeTableChange(m, change))
			}
		case AlterPrimaryKey:
			drift := forTable(m.After.Table(s.Tables.Next).Name())
			drift.Changes = append(drift.Changes, "altered the primary key")
		case CreateIndex:
			index := m.After.Index(s.Index)
			drift := forTable(index.Table().Name())
			drift.Changes = append(drift.Changes, fmt.Sprintf("added index `%s`", index.Name()))
		case DropIndex:
			index := m.Before.Index(s.Index)
			drift := forTable(index.Table().Name())
			drift.Changes = append(drift.Changes, fmt.Sprintf("removed index `%s`", index.Name()))
		case RenameIndex, RedefineIndex:
			var pair MigrationPair[schema.IndexID]
			if rename, ok := s.(RenameIndex); ok {
				pair = rename.Indexes
			} else {
				pair = s.(RedefineIndex).Indexes
			}
			next := m.After.Index(pair.Next)
			drift := forTable(next.Table().Name())
			drift.Changes = append(drift.Changes, fmt.Sprintf("renamed index `%s` to `%s`",
				m.Before.Index(pair.Previous).Name(), next.Name()))
		case AddForeignKey:
			fk := m.After.ForeignKey(s.ForeignKey)
			drift := forTable(fk.Table().Name())
			drift.Changes = append(drift.Changes, fmt.Sprintf("added foreign key to `%s`", fk.Get().ReferencedTable))
		case DropForeignKey:
			fk := m.Before.ForeignKey(s.ForeignKey)
			drift := forTable(fk.Table().Name())
			drift.Changes = append(drift.Changes, fmt.Sprintf("removed foreign key to `%s`", fk.Get().ReferencedTable))
		case RenameForeignKey:
			next := m.After.ForeignKey(s.ForeignKeys.Next)
			drift := forTable(next.Table().Name())
			drift.Changes = append(drift.Changes, fmt.Sprintf("renamed foreign key `%s` to `%s`",
				m.Before.ForeignKey(s.ForeignKeys.Previous).ConstraintName(), next.ConstraintName()))
		}
	}

	for _, name := range tableOrder {
		summary.ChangedTables = append(summary.ChangedTables, *tableChanges[name])
	}
	return summary
}

func describeTableChange(m *Migration, change TableChange) string {
	switch c := change.(type) {
	case AddColumn:
		return fmt.Sprintf("added column `%s`", m.After.Column(c.Column).Name())
	case DropColumn:
		return fmt.Sprintf("removed column `%s`", m.Before.Column(c.Column).Name())
	case AlterColumn:
		return fmt.Sprintf("altered column `%s`", m.After.Column(c.Columns.Next).Name())
	case DropAndRecreateColumn:
		return fmt.Sprintf("recreated column `%s`", m.After.Column(c.Columns.Next).Name())
	case DropPrimaryKey:
		return "removed the primary key"
	case AddPrimaryKey:
		return "added a primary key"
	case RenamePrimaryKey:
		return "renamed the primary key"
	default:
		return "changed"
	}
}

// IsEmpty reports whether the summarized migration had no steps.
func (s DriftSummary) IsEmpty() bool { return s.empty }

// String renders the summary as the indented section list shown to users.
func (s DriftSummary) String() string {
	if s.empty {
		return "No difference detected.\n"
	}

	var b strings.Builder
	writeSection := func(header string, names []string) {
		if len(names) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s\n", header)
		for _, name := range names {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
		b.WriteByte('\n')
	}

	writeSection("[+] Added enums", s.AddedEnums)
	writeSection("[*] Changed enums", s.ChangedEnums)
	writeSection("[-] Removed enums", s.RemovedEnums)
	writeSection("[+] Added tables", s.AddedTables)
	writeSection("[-] Removed tables", s.RemovedTables)
	writeSection("[*] Redefined tables", s.RedefinedTables)

	for _, drift := range s.ChangedTables {
		fmt.Fprintf(&b, "[*] Changed the `%s` table\n", drift.Name)
		for _, change := range drift.Changes {
			fmt.Fprintf(&b, "  [*] %s\n", change)
		}
		b.WriteByte('\n')
	}

	return b.String()
}
