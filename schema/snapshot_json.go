// Package schema provides snapshot (de)serialization so diffs can run
// against saved snapshot files without a live database.
package schema

import (
	"encoding/json"
	"fmt"
)

// snapshotDoc is the storage shape: entities are nested under their table,
// the way introspection discovers them. Ids are not persisted; they are
// reassigned deterministically on load.
type snapshotDoc struct {
	Tables []tableDoc `json:"tables"`
	Enums  []Enum     `json:"enums,omitempty"`
	Views  []View     `json:"views,omitempty"`
}

type tableDoc struct {
	Namespace   string       `json:"namespace,omitempty"`
	Name        string       `json:"name"`
	Columns     []columnDoc  `json:"columns"`
	PrimaryKey  *PrimaryKey  `json:"primaryKey,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
}

type columnDoc struct {
	Name          string   `json:"name"`
	Family        string   `json:"family"`
	Native        string   `json:"native,omitempty"`
	Params        []int    `json:"params,omitempty"`
	EnumName      string   `json:"enum,omitempty"`
	Arity         string   `json:"arity"`
	Default       *Default `json:"default,omitempty"`
	AutoIncrement bool     `json:"autoIncrement,omitempty"`
}

var arityNames = map[Arity]string{Required: "required", Nullable: "nullable", List: "list"}

// Serialize encodes a snapshot as JSON.
func Serialize(s *Snapshot) ([]byte, error) {
	doc := snapshotDoc{Enums: s.enums, Views: s.views}
	for _, table := range s.Tables() {
		td := tableDoc{
			Namespace:  table.Namespace(),
			Name:       table.Name(),
			PrimaryKey: table.PrimaryKey(),
		}
		for _, col := range table.Columns() {
			c := col.Get()
			cd := columnDoc{
				Name:          c.Name,
				Family:        c.Type.Family.String(),
				Native:        c.Type.Native,
				Params:        c.Type.Params,
				Arity:         arityNames[c.Arity],
				Default:       c.Default,
				AutoIncrement: c.AutoIncrement,
			}
			if c.Type.Family == FamilyEnum {
				cd.EnumName = s.enums[c.Type.Enum].Name
			}
			td.Columns = append(td.Columns, cd)
		}
		for _, idx := range table.Indexes() {
			td.Indexes = append(td.Indexes, *idx.Get())
		}
		for _, fk := range table.ForeignKeys() {
			td.ForeignKeys = append(td.ForeignKeys, *fk.Get())
		}
		doc.Tables = append(doc.Tables, td)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return data, nil
}

// Deserialize decodes a snapshot from JSON.
func Deserialize(data []byte) (*Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}

	s := New()
	for _, e := range doc.Enums {
		s.AddEnum(e)
	}
	for _, v := range doc.Views {
		s.AddView(v)
	}
	for _, td := range doc.Tables {
		tableID := s.AddTable(td.Namespace, td.Name)
		for _, cd := range td.Columns {
			col, err := cd.toColumn(s)
			if err != nil {
				return nil, fmt.Errorf("table %q: %w", td.Name, err)
			}
			s.AddColumn(tableID, col)
		}
		if td.PrimaryKey != nil {
			s.SetPrimaryKey(tableID, *td.PrimaryKey)
		}
		for _, idx := range td.Indexes {
			s.AddIndex(tableID, idx)
		}
		for _, fk := range td.ForeignKeys {
			s.AddForeignKey(tableID, fk)
		}
	}
	return s, nil
}

func (cd columnDoc) toColumn(s *Snapshot) (Column, error) {
	family, ok := familyByName(cd.Family)
	if !ok {
		return Column{}, fmt.Errorf("column %q: unknown type family %q", cd.Name, cd.Family)
	}

	col := Column{
		Name: cd.Name,
		Type: ColumnType{
			Family: family,
			Native: cd.Native,
			Params: cd.Params,
		},
		Default:       cd.Default,
		AutoIncrement: cd.AutoIncrement,
	}

	switch cd.Arity {
	case "required", "":
		col.Arity = Required
	case "nullable":
		col.Arity = Nullable
	case "list":
		col.Arity = List
	default:
		return Column{}, fmt.Errorf("column %q: unknown arity %q", cd.Name, cd.Arity)
	}

	if family == FamilyEnum {
		enumID, ok := s.FindEnum(cd.EnumName)
		if !ok {
			return Column{}, fmt.Errorf("column %q: references unknown enum %q", cd.Name, cd.EnumName)
		}
		col.Type.Enum = enumID
	}

	return col, nil
}

func familyByName(name string) (TypeFamily, bool) {
	for family, n := range familyNames {
		if n == name {
			return family, true
		}
	}
	return 0, false
}
