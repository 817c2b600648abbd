package domain

// Sheet names a tracked dataset.
type Sheet string

const (
	SheetSizing  Sheet = "Sizing"
	SheetCapPhat Sheet = "CapPhat"
	SheetChiTiet Sheet = "ChiTiet"
	SheetCloud   Sheet = "Cloud"
)

// Sheets lists every dataset in display order.
var Sheets = []Sheet{SheetSizing, SheetCapPhat, SheetChiTiet, SheetCloud}

// Valid reports whether s is a known dataset.
func (s Sheet) Valid() bool {
	_, ok := sheetColumns[s]
	return ok
}

// Field names shared with the spreadsheet front end. They are stored verbatim.
const (
	FieldSTT = "STT"

	// Sizing
	FieldSizingProject  = "Tên dự án - Mục đích sizing"
	FieldSizingKPI      = "Thời gian hoàn thành theo KPI"
	FieldSizingProgress = "Tiến độ"
	FieldSizingOwner    = "Đầu mối xử lý"
	FieldSizingRequest  = "Thời điểm đẩy yêu cầu"

	// CapPhat
	FieldCapPhatProject  = "Dự án"
	FieldCapPhatOwner    = "Đầu mối P.HT"
	FieldCapPhatSRCode   = "Mã SR"
	FieldCapPhatReceived = "Thời gian tiếp nhận y/c"
)

var sheetColumns = map[Sheet][]string{
	SheetSizing: {
		"STT", "Mã PYC", "Đơn vị", "Đầu mối tạo PYC", "Đầu mối xử lý", "Trạng thái",
		"Thời điểm đẩy yêu cầu", "Thời gian hoàn thành theo KPI", "Tiến độ",
		"Thời gian hoàn thành ký PNX và đóng y/c", "Thời gian ký bản chốt sizing",
		"Tên dự án - Mục đích sizing", "Ghi chú",
	},
	SheetCapPhat: {
		"STT", "Dự án", "Đơn vị", "Đầu mối y/c", "Đầu mối P.HT", "Mã SR",
		"Tiến độ, vướng mắc, đề xuất", "Thời gian tiếp nhận y/c",
		"Timeline thực hiện theo GNOC", "Thời gian hoàn thành", "Hoàn thành",
	},
	SheetChiTiet: {
		"STT", "Dự án", "Đơn vị", "Đầu mối y/c", "Đầu mối P.HT", "Mã SR", "Qúy cấp phát",
		"Số lượng máy chủ", "vCPU", "Cint", "RAM(GB)", "SAN(GB)", "NAS(GB)", "Ceph(GB)",
		"Bigdata(GB)", "Archiving(GB)", "S3 Object(GB)", "Pool/Nguồn tài nguyên",
		"Nhóm tài nguyên", "Ghi chú",
	},
	SheetCloud: {
		"STT", "Tiêu chí",
		"Com_Ceph vCPU", "Com_SAN vCPU", "Com_Ceph RAM(TB)", "Com_SAN RAM(TB)",
		"CEPH(GB)", "SAN(GB)", "NAS(GB)", "Ghi chú",
		"PC Tiêu chí",
		"PC Com_Ceph vCPU", "PC Com_SAN vCPU", "PC Com_Ceph RAM(GB)", "PC Com_SAN RAM(GB)",
		"PC CEPH(GB)", "PC SAN(GB)", "PC NAS(GB)", "NAS(theo đầu mới VHKTT gửi tháng 3 2025)", "PC Ghi chú",
		"Tổng TN 2021", "Đã cấp phát 2021", "TN còn lại 2021",
		"Tổng TN 2023", "Đã cấp phát 2023", "TN còn lại 2023",
		"2021 Tiêu chí",
		"2021 Com_Ceph vCPU", "2021 Com_SAN vCPU", "2021 Com_Ceph RAM(GB)", "2021 Com_SAN RAM(GB)",
		"2021 CEPH(GB)", "2021 SAN(GB)", "2021 NAS(GB)", "2021 NAS(theo đầu mới VHKTT gửi tháng 3 2025)", "2021 Ghi chú",
		"2022 vCPU", "2022 RAM(GB)", "2022 CEPH(GB)", "2022 Com_SAN", "2022 SAN(GB)", "2022 NAS(GB)", "Object(GB)",
		"Com_Bigdata vCPU", "Com_Bigdata RAM", "Bigdata(GB)", "Archiving(GB)", "Bare_metal vCPU", "Bare_metal RAM", "2022 Ghi chú",
	},
}

// Columns returns a copy of the column list for s, or nil for an unknown sheet.
func (s Sheet) Columns() []string {
	cols, ok := sheetColumns[s]
	if !ok {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// HasColumn reports whether col belongs to s.
func (s Sheet) HasColumn(col string) bool {
	col = NormalizeField(col)
	for _, c := range sheetColumns[s] {
		if c == col {
			return true
		}
	}
	return false
}

// OwnerField returns the field holding the responsible owner code, or "" when
// the sheet has no designated owner.
func (s Sheet) OwnerField() string {
	switch s {
	case SheetSizing:
		return FieldSizingOwner
	case SheetCapPhat:
		return FieldCapPhatOwner
	default:
		return ""
	}
}

// OwnerLabel is the caption shown next to the owner in supervisor messages.
func (s Sheet) OwnerLabel() string {
	if f := s.OwnerField(); f != "" {
		return f
	}
	return "Đầu mối"
}
