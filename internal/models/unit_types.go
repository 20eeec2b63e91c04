package models

import (
	"github.com/gosimple/slug"
)

// UnitOptions is the known unit-of-measure vocabulary, as maintained by
// the store team. It intentionally keeps the messy historical entries
// that already exist on live rows.
var UnitOptions = []string{
	"7- QUẢ", "Bánh", "Bao", "BAO-18", "BAO-20", "BAO-80", "Bịch", "Bịch-?", "bịch-10",
	"BỊCH-12", "BỊCH-20", "BỊCH-3", "BỊCH-5", "Bình", "Block", "Bó", "Bộ1", "Bộ2",
	"Bộ3", "Bộ4", "Bộ6", "Bọc", "BỌC-12", "Cái", "Can", "Cặp", "Cây", "CÂY-10",
	"Chai", "Chiếc", "Combo", "Con", "Cuộn", "Dây", "DÂY-10", "Đôi", "Gói", "Gram",
	"Hộp", "HỘP-10", "hộp-24", "Hũ", "Kẹp", "Kg", "Lọ", "Lốc", "LỐC-10", "LỐC-3",
	"LỐC-4", "LỐC-6", "Lon", "Ly", "Miếng", "ml", "Quả", "SIM", "Thanh", "Thẻ",
	"Thỏi", "Thùng", "THÙNG-10", "THÙNG-100", "THÙNG-11", "THÙNG-12",
	"THÙNG-14", "THÙNG-15", "THÙNG-16", "THÙNG-18", "THÙNG-2", "THÙNG-20", "THÙNG-24",
	"THÙNG-3", "THÙNG-30", "THÙNG-36", "thùng-360", "THÙNG-4", "THÙNG-40", "THÙNG-42",
	"THÙNG-48", "THÙNG-5", "THÙNG-50", "THÙNG-6", "THÙNG-8", "THÙNG-80", "THÙNG-9",
	"Tô", "Túi", "Túi-10", "TÚI-3", "TÚI-7", "Tuýp", "Vỉ", "Vỉ-2",
}

// unitBySlug maps the slugified form of each known unit to its
// canonical spelling. Slugs fold case and Vietnamese diacritics, so
// "hộp", "Hộp" and "HOP" all land on the same entry.
var unitBySlug = func() map[string]string {
	m := make(map[string]string, len(UnitOptions))
	for _, u := range UnitOptions {
		key := slug.Make(u)
		if _, seen := m[key]; !seen {
			m[key] = u
		}
	}
	return m
}()

// CanonicalUnit dedups a user-entered unit against the vocabulary.
// Known units come back in their canonical spelling; unknown units are
// returned verbatim — the vocabulary dedups, it does not gatekeep.
func CanonicalUnit(unit string) string {
	if canonical, ok := unitBySlug[slug.Make(unit)]; ok {
		return canonical
	}
	return unit
}
