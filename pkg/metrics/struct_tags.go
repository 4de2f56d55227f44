package metrics

import (
	"fmt"
	"path"
	"reflect"
)

type metricAdder func(interface{}, string, string, map[string]string) interface{}

// struct tags understood when scanning a metrics definition, mapped to the
// keys passed to the metricAdder
var fieldTagKeys = map[string]string{
	"metric":      "metric",
	"unit":        "unit",
	"group":       "group",
	"description": "description",
	"extraviews":  "views",
	"tags":        "groupings",
}

func equalType(a, b interface{}) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// scanStruct allocates all the measures declared in a struct, recursively
func scanStruct(parent string, adder metricAdder, m interface{}) {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("scanStruct requires a pointer to a struct, got: %T", m))
	}
	scanValue(parent, adder, rv.Elem())
}

func scanValue(parent string, adder metricAdder, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		if !value.CanSet() {
			continue
		}
		tags := fieldTags(field)
		group := path.Join(parent, tags["group"])

		if tags["metric"] == "" {
			switch {
			case value.Kind() == reflect.Struct:
				scanValue(group, adder, value)
			case value.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct:
				if value.IsNil() {
					value.Set(reflect.New(field.Type.Elem()))
				}
				scanValue(group, adder, value.Elem())
			}
			continue
		}

		if value.Kind() != reflect.Ptr {
			continue
		}
		if allocated := adder(value.Interface(), tags["metric"], group, tags); allocated != nil {
			value.Set(reflect.ValueOf(allocated))
		}
	}
}

// fieldTags decodes the tags that decorate a field of a metrics definition:
//   - metric: the metric name
//   - group: adds a level to the path of the metric (e.g. root/{group}/{metric})
//   - unit: the unit of the measure, which determines the default view
//   - description: describes the metric and the associated views
//   - extraviews: additional views with alternate aggregations
//   - tags: the tag keys used to group measurements in views
func fieldTags(field reflect.StructField) map[string]string {
	tags := make(map[string]string, len(fieldTagKeys))
	for structTag, key := range fieldTagKeys {
		if value, ok := field.Tag.Lookup(structTag); ok {
			tags[key] = value
		}
	}
	return tags
}
