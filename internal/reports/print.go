package reports

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/distributions"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
)

var thaiFullMonths = [...]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

var kindLabels = map[documents.Kind]string{
	documents.KindIncoming:     "หนังสือรับเข้า",
	documents.KindOutgoing:     "หนังสือส่งออก",
	documents.KindOrder:        "คำสั่ง",
	documents.KindMemo:         "บันทึกข้อความ",
	documents.KindAnnouncement: "ประกาศ",
}

var periodLabels = map[Period]string{
	PeriodWeek:  "รายสัปดาห์",
	PeriodMonth: "รายเดือน",
	PeriodYear:  "รายปี",
}

// ThaiDate renders the instant as a Thai-locale date with the Buddhist era
// year, e.g. "29 สิงหาคม 2569".
func ThaiDate(instant time.Time) string {
	instant = instant.UTC()
	return fmt.Sprintf("%d %s %d", instant.Day(), thaiFullMonths[int(instant.Month())-1], instant.Year()+543)
}

// KindLabel resolves the Thai display name of a document variant.
func KindLabel(kind documents.Kind) string {
	return kindLabels[kind]
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html lang="th">
<head>
<meta charset="utf-8">
<title>รายงานสรุปทะเบียนหนังสือ</title>
<style>
body { font-family: "TH Sarabun New", sans-serif; margin: 2rem; color: #1a1a1a; }
h1 { font-size: 1.4rem; text-align: center; margin-bottom: 0.25rem; }
p.range { text-align: center; margin-top: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 1.5rem; }
th, td { border: 1px solid #444; padding: 0.4rem 0.6rem; text-align: center; }
th { background: #efefef; }
td.name { text-align: left; }
tfoot td { font-weight: bold; }
p.printed { margin-top: 2rem; font-size: 0.85rem; text-align: right; }
</style>
</head>
<body>
<h1>รายงานสรุปทะเบียนหนังสือ ({{.PeriodLabel}})</h1>
<p class="range">ช่วงวันที่ {{.StartLabel}} ถึง {{.EndLabel}}</p>
<table>
<thead>
<tr><th>ประเภทหนังสือ</th><th>จำนวน (ฉบับ)</th><th>ร้อยละ</th></tr>
</thead>
<tbody>
{{range .Variants}}<tr><td class="name">{{.Label}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .Percent}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td class="name">รวมทั้งสิ้น</td><td>{{.Total}}</td><td>{{if gt .Total 0}}100.0{{else}}0.0{{end}}</td></tr>
</tfoot>
</table>
<p class="printed">พิมพ์เมื่อวันที่ {{.PrintedLabel}}</p>
</body>
</html>
`))

type summaryVariantView struct {
	Label   string
	Count   int
	Percent float64
}

type summaryView struct {
	PeriodLabel  string
	StartLabel   string
	EndLabel     string
	Total        int
	Variants     []summaryVariantView
	PrintedLabel string
}

// RenderSummaryHTML renders the period summary as a self-contained printable
// page with Thai labels and Buddhist era dates.
func RenderSummaryHTML(summary Summary, printedAt time.Time) ([]byte, error) {
	view := summaryView{
		PeriodLabel: periodLabels[summary.Period],
		StartLabel:  ThaiDate(summary.Start),
		// End is exclusive; the printed range shows the last covered day.
		EndLabel:     ThaiDate(summary.End.AddDate(0, 0, -1)),
		Total:        summary.Total,
		PrintedLabel: ThaiDate(printedAt),
	}
	for _, variant := range summary.Variants {
		view.Variants = append(view.Variants, summaryVariantView{
			Label:   kindLabels[variant.Kind],
			Count:   variant.Count,
			Percent: variant.Percent,
		})
	}

	var rendered bytes.Buffer
	if err := summaryTemplate.Execute(&rendered, view); err != nil {
		return nil, fmt.Errorf("reports: render summary: %w", err)
	}
	return rendered.Bytes(), nil
}

var batchTemplate = template.Must(template.New("batch").Parse(`<!DOCTYPE html>
<html lang="th">
<head>
<meta charset="utf-8">
<title>รายงานการส่งหนังสือ</title>
<style>
body { font-family: "TH Sarabun New", sans-serif; margin: 2rem; color: #1a1a1a; }
h1 { font-size: 1.4rem; text-align: center; }
table { width: 100%; border-collapse: collapse; margin-top: 1.5rem; }
th, td { border: 1px solid #444; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #efefef; }
p.printed { margin-top: 2rem; font-size: 0.85rem; text-align: right; }
</style>
</head>
<body>
<h1>รายงานการส่งหนังสือ</h1>
<table>
<thead>
<tr><th>ลำดับ</th><th>เลขที่หนังสือ</th><th>เรื่อง</th><th>ห้องปลายทาง</th><th>วันที่ส่ง</th><th>ผู้ส่ง</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Index}}</td><td>{{.DocumentNumber}}</td><td>{{.Subject}}</td><td>{{.RoomName}}</td><td>{{.SentLabel}}</td><td>{{.SentBy}}</td></tr>
{{end}}</tbody>
</table>
<p class="printed">พิมพ์เมื่อวันที่ {{.PrintedLabel}}</p>
</body>
</html>
`))

type batchRowView struct {
	Index          int
	DocumentNumber string
	Subject        string
	RoomName       string
	SentLabel      string
	SentBy         string
}

type batchView struct {
	Rows         []batchRowView
	PrintedLabel string
}

// RenderBatchHTML renders the printable report for a just sent distribution
// batch. Missing relations render as unspecified rather than failing the
// print.
func RenderBatchHTML(entries []distributions.Distribution, printedAt time.Time) ([]byte, error) {
	view := batchView{PrintedLabel: ThaiDate(printedAt)}
	for i, entry := range entries {
		row := batchRowView{
			Index:     i + 1,
			RoomName:  "ไม่ระบุ",
			SentLabel: ThaiDate(entry.SentAt),
			SentBy:    entry.SentBy,
		}
		if entry.IncomingDocument != nil {
			row.DocumentNumber = entry.IncomingDocument.DocumentNumber
			row.Subject = entry.IncomingDocument.Subject
		}
		if entry.Room != nil {
			row.RoomName = entry.Room.Name
		}
		view.Rows = append(view.Rows, row)
	}

	var rendered bytes.Buffer
	if err := batchTemplate.Execute(&rendered, view); err != nil {
		return nil, fmt.Errorf("reports: render batch: %w", err)
	}
	return rendered.Bytes(), nil
}
