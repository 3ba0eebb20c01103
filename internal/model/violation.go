package model

// ViolationType is one of the nine fixed violation categories handled by the
// triage pipeline.
type ViolationType string

const (
	ViolationKorupsi             ViolationType = "Korupsi"
	ViolationGratifikasi         ViolationType = "Gratifikasi / Penyuapan"
	ViolationPenggelapan         ViolationType = "Penggelapan"
	ViolationPenipuan            ViolationType = "Penipuan"
	ViolationPencurian           ViolationType = "Pencurian"
	ViolationPemerasan           ViolationType = "Pemerasan"
	ViolationBenturanKepentingan ViolationType = "Benturan Kepentingan"
	ViolationPelanggaranKebijakan ViolationType = "Pelanggaran Kebijakan"
	ViolationTindakanCurang      ViolationType = "Tindakan Curang"
)

// ViolationMeta carries the fixed reference data for one violation type.
type ViolationMeta struct {
	Code            string   `json:"code"`
	LegalBasis      string   `json:"legal_basis"`
	DefaultSeverity Severity `json:"default_severity"`
	Keywords        []string `json:"keywords"`
}

// violationTable is ordered by code; fallback tie-breaking relies on this
// order (lower code wins).
var violationTable = []struct {
	Type ViolationType
	Meta ViolationMeta
}{
	{ViolationKorupsi, ViolationMeta{
		Code:            "V001",
		LegalBasis:      "KUHP Pasal 2, 3 | UU Tipikor",
		DefaultSeverity: SeverityCritical,
		Keywords:        []string{"korupsi", "suap", "gratifikasi ilegal", "penyalahgunaan wewenang"},
	}},
	{ViolationGratifikasi, ViolationMeta{
		Code:            "V002",
		LegalBasis:      "UU No. 11 Tahun 1980",
		DefaultSeverity: SeverityHigh,
		Keywords:        []string{"gratifikasi", "penyuapan", "hadiah tidak sah", "kickback"},
	}},
	{ViolationPenggelapan, ViolationMeta{
		Code:            "V003",
		LegalBasis:      "KUHP Pasal 372",
		DefaultSeverity: SeverityHigh,
		Keywords:        []string{"penggelapan", "menghilangkan aset", "mark up", "markup"},
	}},
	{ViolationPenipuan, ViolationMeta{
		Code:            "V004",
		LegalBasis:      "KUHP Pasal 378",
		DefaultSeverity: SeverityHigh,
		Keywords:        []string{"penipuan", "fraud", "manipulasi data", "pemalsuan"},
	}},
	{ViolationPencurian, ViolationMeta{
		Code:            "V005",
		LegalBasis:      "KUHP Pasal 362",
		DefaultSeverity: SeverityMedium,
		Keywords:        []string{"pencurian", "pencurian aset", "kehilangan inventaris"},
	}},
	{ViolationPemerasan, ViolationMeta{
		Code:            "V006",
		LegalBasis:      "KUHP Pasal 368",
		DefaultSeverity: SeverityHigh,
		Keywords:        []string{"pemerasan", "intimidasi", "ancaman"},
	}},
	{ViolationBenturanKepentingan, ViolationMeta{
		Code:            "V007",
		LegalBasis:      "UU No. 30 Tahun 2014",
		DefaultSeverity: SeverityMedium,
		Keywords:        []string{"benturan kepentingan", "conflict of interest", "kepentingan pribadi"},
	}},
	{ViolationPelanggaranKebijakan, ViolationMeta{
		Code:            "V008",
		LegalBasis:      "SOP Internal BPKH",
		DefaultSeverity: SeverityMedium,
		Keywords:        []string{"pelanggaran sop", "tidak sesuai prosedur", "menyalahi aturan"},
	}},
	{ViolationTindakanCurang, ViolationMeta{
		Code:            "V009",
		LegalBasis:      "Kode Etik BPKH",
		DefaultSeverity: SeverityLow,
		Keywords:        []string{"kecurangan", "pelanggaran etika", "tidak jujur"},
	}},
}

// AllViolationTypes returns the violation types in code order.
func AllViolationTypes() []ViolationType {
	out := make([]ViolationType, len(violationTable))
	for i, row := range violationTable {
		out[i] = row.Type
	}
	return out
}

// ViolationInfo returns the reference metadata for a violation type.
func ViolationInfo(vt ViolationType) (ViolationMeta, bool) {
	for _, row := range violationTable {
		if row.Type == vt {
			return row.Meta, true
		}
	}
	return ViolationMeta{}, false
}

// ValidViolationType reports whether vt is one of the nine fixed types.
func ValidViolationType(vt ViolationType) bool {
	_, ok := ViolationInfo(vt)
	return ok
}

// Unit is an organizational unit a report can be routed to.
type Unit string

const (
	UnitSPI         Unit = "Satuan Pengawasan Internal (SPI)"
	UnitKepatuhan   Unit = "Unit Kepatuhan"
	UnitBiroHukum   Unit = "Biro Hukum"
	UnitSDM         Unit = "Unit SDM"
	UnitKomiteAudit Unit = "Komite Audit"
)

// AllUnits returns the five organizational units.
func AllUnits() []Unit {
	return []Unit{UnitSPI, UnitKepatuhan, UnitBiroHukum, UnitSDM, UnitKomiteAudit}
}

// unitRouting maps each violation type to its handling unit. Komite Audit is
// an escalation target only and never a primary assignee.
var unitRouting = map[ViolationType]Unit{
	ViolationKorupsi:              UnitSPI,
	ViolationGratifikasi:          UnitSPI,
	ViolationPenggelapan:          UnitSPI,
	ViolationPenipuan:             UnitBiroHukum,
	ViolationPemerasan:            UnitBiroHukum,
	ViolationPencurian:            UnitBiroHukum,
	ViolationBenturanKepentingan:  UnitKepatuhan,
	ViolationPelanggaranKebijakan: UnitKepatuhan,
	ViolationTindakanCurang:       UnitSDM,
}

// UnitFor returns the unit responsible for a violation type. Unknown types
// fall to SPI as the general investigation unit.
func UnitFor(vt ViolationType) Unit {
	if u, ok := unitRouting[vt]; ok {
		return u
	}
	return UnitSPI
}
