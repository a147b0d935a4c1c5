// Пакет taxonomy — дерево фильтров brand → modelGroup → model → [grade].
// Ключи на каждом уровне и списки комплектаций упорядочены
// с учётом чисел ("1.6" < "2.0" < "10.0").
package taxonomy

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
)

// Taxonomy — дерево фильтров. Сериализуется в JSON с упорядоченными ключами.
type Taxonomy map[string]map[string]map[string][]string

// Build сворачивает строки каталога в дерево.
// Строки без марки, группы или модели пропускаются; пустая комплектация
// создаёт модель без добавления значения. Комплектации уникальны в пределах модели.
func Build(rows []model.TaxonomyRow) Taxonomy {
	t := Taxonomy{}
	for _, r := range rows {
		if r.Manufacturer == "" || r.ModelGroup == "" || r.Model == "" {
			continue
		}
		groups, ok := t[r.Manufacturer]
		if !ok {
			groups = map[string]map[string][]string{}
			t[r.Manufacturer] = groups
		}
		models, ok := groups[r.ModelGroup]
		if !ok {
			models = map[string][]string{}
			groups[r.ModelGroup] = models
		}
		grades, ok := models[r.Model]
		if !ok {
			grades = []string{}
		}
		if r.Grade != "" && !slices.Contains(grades, r.Grade) {
			grades = append(grades, r.Grade)
		}
		models[r.Model] = grades
	}
	for _, groups := range t {
		for _, models := range groups {
			for name, grades := range models {
				models[name] = Sorted(grades)
			}
		}
	}
	return t
}

// Stats — размеры дерева для логов и метрик.
type Stats struct {
	Brands int
	Models int
	Grades int
}

// Stats считает марки, модели и комплектации.
func (t Taxonomy) Stats() Stats {
	var s Stats
	s.Brands = len(t)
	for _, groups := range t {
		for _, models := range groups {
			s.Models += len(models)
			for _, grades := range models {
				s.Grades += len(grades)
			}
		}
	}
	return s
}

// Less — порядок с учётом чисел. Равные по natural строки
// упорядочиваются побайтово, чтобы порядок был полным.
func Less(a, b string) bool {
	if natural.Less(a, b) {
		return true
	}
	if natural.Less(b, a) {
		return false
	}
	return a < b
}

// Sorted возвращает отсортированную копию; nil превращается в пустой срез.
func Sorted(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// MarshalJSON выводит ключи всех уровней в порядке Less.
func (t Taxonomy) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	err := writeObject(&buf, map[string]map[string]map[string][]string(t), func(buf *bytes.Buffer, groups map[string]map[string][]string) error {
		return writeObject(buf, groups, func(buf *bytes.Buffer, models map[string][]string) error {
			return writeObject(buf, models, func(buf *bytes.Buffer, grades []string) error {
				b, err := json.Marshal(Sorted(grades))
				if err != nil {
					return err
				}
				buf.Write(b)
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeObject пишет JSON-объект с упорядоченными ключами.
func writeObject[V any](buf *bytes.Buffer, m map[string]V, writeValue func(*bytes.Buffer, V) error) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if err := writeValue(buf, m[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// Encode сериализует дерево в форматированный JSON с отступом в два пробела.
func Encode(t Taxonomy) ([]byte, error) {
	if t == nil {
		t = Taxonomy{}
	}
	return json.MarshalIndent(t, "", "  ")
}
