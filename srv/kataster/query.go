package kataster

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Layer and attribute names on the cadastre WFS endpoint. All geometry is
// served in the Estonian national grid (L-EST97, a Lambert Conformal Conic
// projection); coordinates are meters, never degrees.
const (
	TypeName         = "kataster:ky_ajalugu"
	FieldTunnus      = "tunnus"
	FieldValidFrom   = "kehtiv_alates"
	FieldValidTo     = "kehtiv_kuni"
	FieldAcquisition = "omandamisviis"
	GeometryColumn   = "geom"
	SRID             = 3301
)

// listLimit caps version listings. A parcel rarely has more than a handful
// of versions; 200 is far beyond anything the register holds.
const listLimit = 200

// escapeLiteral doubles single quotes so user input can never break out of
// a CQL string literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// TemporalPredicate returns the CQL validity predicate for an as-of date:
// the version must have started on or before the date and either still be
// active or have ended strictly after it. An empty date means unconstrained
// and yields no predicate at all.
func TemporalPredicate(asOf string) string {
	if asOf == "" {
		return ""
	}
	d := escapeLiteral(asOf)
	return fmt.Sprintf("%s <= '%s' AND (%s IS NULL OR %s > '%s')",
		FieldValidFrom, d, FieldValidTo, FieldValidTo, d)
}

// baseParams returns the GetFeature parameters shared by every query.
func baseParams() url.Values {
	v := url.Values{}
	v.Set("service", "WFS")
	v.Set("version", "2.0.0")
	v.Set("request", "GetFeature")
	v.Set("typeNames", TypeName)
	v.Set("outputFormat", "application/json")
	v.Set("srsName", fmt.Sprintf("EPSG:%d", SRID))
	return v
}

// AttributeQuery builds the cheap listing query: only the identifier,
// validity bounds and acquisition method of every version of the parcel,
// newest first. Geometry is deliberately excluded so listing stays light;
// it is fetched per version on selection.
func AttributeQuery(tunnus, asOf string) url.Values {
	v := baseParams()
	v.Set("propertyName", strings.Join([]string{
		FieldTunnus, FieldValidFrom, FieldValidTo, FieldAcquisition,
	}, ","))
	filter := fmt.Sprintf("%s = '%s'", FieldTunnus, escapeLiteral(tunnus))
	if p := TemporalPredicate(asOf); p != "" {
		filter += " AND " + p
	}
	v.Set("CQL_FILTER", filter)
	v.Set("sortBy", FieldValidFrom+" D")
	v.Set("count", strconv.Itoa(listLimit))
	return v
}

// GeometryQuery builds the full-record query for one exact validity
// interval. An empty validTo selects the currently active version via
// IS NULL; otherwise both bounds must match exactly. No count is set: at
// most one record is expected but uniqueness is not assumed.
func GeometryQuery(tunnus, validFrom, validTo string) url.Values {
	v := baseParams()
	filter := fmt.Sprintf("%s = '%s' AND %s = '%s'",
		FieldTunnus, escapeLiteral(tunnus),
		FieldValidFrom, escapeLiteral(validFrom))
	if validTo == "" {
		filter += fmt.Sprintf(" AND %s IS NULL", FieldValidTo)
	} else {
		filter += fmt.Sprintf(" AND %s = '%s'", FieldValidTo, escapeLiteral(validTo))
	}
	v.Set("CQL_FILTER", filter)
	return v
}

// AllPropertiesQuery builds the detail query: every field of every version
// of the parcel, newest first.
func AllPropertiesQuery(tunnus string) url.Values {
	v := baseParams()
	v.Set("CQL_FILTER", fmt.Sprintf("%s = '%s'", FieldTunnus, escapeLiteral(tunnus)))
	v.Set("sortBy", FieldValidFrom+" D")
	v.Set("count", strconv.Itoa(listLimit))
	return v
}

// PointQuery builds the identification query: the single feature whose
// geometry contains the point, under the optional validity constraint.
// Sorting newest-first means the most recent version wins when historical
// geometries overlap the point.
func PointQuery(x, y float64, asOf string) url.Values {
	v := baseParams()
	v.Set("propertyName", strings.Join([]string{
		FieldTunnus, FieldValidFrom, FieldValidTo,
	}, ","))
	filter := fmt.Sprintf("INTERSECTS(%s, SRID=%d;POINT(%s %s))",
		GeometryColumn, SRID,
		strconv.FormatFloat(x, 'f', -1, 64),
		strconv.FormatFloat(y, 'f', -1, 64))
	if p := TemporalPredicate(asOf); p != "" {
		filter += " AND " + p
	}
	v.Set("CQL_FILTER", filter)
	v.Set("sortBy", FieldValidFrom+" D")
	v.Set("count", "1")
	return v
}

// SortVersions orders versions for listing: the active version (no end
// date) first, then by end date descending, ties broken by start date
// descending. ISO dates compare correctly as strings.
func SortVersions(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if (a.ValidTo == "") != (b.ValidTo == "") {
			return a.ValidTo == ""
		}
		if a.ValidTo != b.ValidTo {
			return a.ValidTo > b.ValidTo
		}
		return a.ValidFrom > b.ValidFrom
	})
}
