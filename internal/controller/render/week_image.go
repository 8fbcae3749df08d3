package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = ""
	FontStyleMedium  FontStyle = "medium"
	FontStyleBold    FontStyle = "bold"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
	maxSlotTextRunes = 22
)

// Константы шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 27.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 17.0
	slotTextFontSize   = 14.0
	legendItemFontSize = 12.0
)

// palette цветовая схема картинки
type palette struct {
	bg          color.Color
	text        color.Color
	hourLabel   color.Color
	hourLine    color.Color
	todayBg     color.Color
	evenDay     color.Color
	oddDay      color.Color
	currentTime color.Color
	slotText    color.Color
	slotShadow  color.Color
	legendItem  color.Color
}

var lightPalette = palette{
	bg:          color.RGBA{245, 246, 248, 255},
	text:        color.RGBA{80, 85, 90, 220},
	hourLabel:   color.RGBA{110, 115, 120, 200},
	hourLine:    color.NRGBA{150, 150, 150, 255},
	todayBg:     color.NRGBA{255, 99, 71, 125},
	evenDay:     color.NRGBA{240, 240, 240, 255},
	oddDay:      color.NRGBA{220, 220, 220, 255},
	currentTime: color.NRGBA{255, 80, 80, 200},
	slotText:    color.RGBA{20, 24, 28, 230},
	slotShadow:  color.RGBA{0, 0, 0, 20},
	legendItem:  color.RGBA{70, 74, 78, 220},
}

var darkPalette = palette{
	bg:          color.RGBA{28, 30, 34, 255},
	text:        color.RGBA{220, 222, 226, 230},
	hourLabel:   color.RGBA{160, 165, 170, 210},
	hourLine:    color.NRGBA{90, 90, 95, 255},
	todayBg:     color.NRGBA{180, 70, 50, 110},
	evenDay:     color.NRGBA{40, 42, 47, 255},
	oddDay:      color.NRGBA{50, 52, 58, 255},
	currentTime: color.NRGBA{255, 100, 100, 220},
	slotText:    color.RGBA{20, 24, 28, 240},
	slotShadow:  color.RGBA{0, 0, 0, 60},
	legendItem:  color.RGBA{200, 204, 208, 220},
}

// Цвета занятий по типу, если API прислал цвет по умолчанию
var (
	lectureColor  = color.RGBA{120, 170, 230, 230}
	practiceColor = color.RGBA{133, 193, 85, 220}
	examColor     = color.RGBA{240, 130, 120, 235}
	otherColor    = color.RGBA{210, 210, 210, 220}
)

func paletteFor(theme model.Theme) palette {
	if theme == model.ThemeDark {
		return darkPalette
	}
	return lightPalette
}

// hourRange содержит диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

// slotBox занятие с вычисленными границами
type slotBox struct {
	lesson model.Lesson
	start  time.Time
	end    time.Time
}

// WeekImageOptions данные для картинки недели
type WeekImageOptions struct {
	WeekStart time.Time // любой день недели, нормализуется к понедельнику
	Days      []model.DailySchedule
	Title     string // группа или преподаватель
	Theme     model.Theme
	Now       time.Time
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont загружает шрифт указанного стиля или использует basicfont как fallback
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	var fontData []byte
	switch style {
	case FontStyleMedium:
		fontData = gomedium.TTF
	case FontStyleBold:
		fontData = gobold.TTF
	default:
		fontData = goregular.TTF
	}

	fontsMu.Lock()
	parsed, ok := cachedFonts[style]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData)
		if err != nil {
			fontsMu.Unlock()
			dc.SetFontFace(basicfont.Face7x13)
			return
		}
		cachedFonts[style] = parsed
	}
	fontsMu.Unlock()

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// GenerateWeekImage рисует неделю занятий в PNG
func GenerateWeekImage(opts WeekImageOptions) ([]byte, error) {
	loc := opts.WeekStart.Location()
	weekStart := timetable.WeekStart(opts.WeekStart)
	now := opts.Now
	if now.IsZero() {
		now = time.Now().In(loc)
	}
	today := timetable.DayStart(now)
	highlightToday := !today.Before(weekStart) && today.Before(weekStart.AddDate(0, 0, totalDaysInWeek))

	boxes := collectBoxes(opts.Days, loc)
	hours := calculateHourRange(boxes)
	pal := paletteFor(opts.Theme)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(pal.bg)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, pal, weekStart, opts.Title)
	drawHourLabels(dc, pal, hours, cellHeight)

	for dayIndex := 0; dayIndex < totalDaysInWeek; dayIndex++ {
		date := weekStart.AddDate(0, 0, dayIndex)
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, pal, x, y, dayWidth, dayHeight, dayIndex, highlightToday && timetable.SameDay(date, today))
		drawDayHeader(dc, pal, date, x, y, dayWidth)
		drawHourLines(dc, pal, x, y, dayWidth, hours, cellHeight)
		for _, box := range boxes {
			if timetable.SameDay(box.start, date) {
				drawSlot(dc, pal, box, x, y, dayWidth, hours, cellHeight)
			}
		}
	}

	if highlightToday {
		drawCurrentTimeLine(dc, pal, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, pal, dayWidth)

	return encodeImage(dc)
}

// collectBoxes вычисляет границы занятий, занятия с битым временем пропускаются
func collectBoxes(days []model.DailySchedule, loc *time.Location) []slotBox {
	var boxes []slotBox
	for _, day := range days {
		for i := range day.Lessons {
			start, end, err := timetable.LessonBounds(&day.Lessons[i], loc)
			if err != nil {
				continue
			}
			boxes = append(boxes, slotBox{lesson: day.Lessons[i], start: start, end: end})
		}
	}
	return boxes
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(boxes []slotBox) hourRange {
	minHour := 24
	maxHour := 0

	for _, box := range boxes {
		startH := box.start.Hour()
		endH := box.end.Hour()
		if box.end.Minute() > 0 {
			endH++
		}
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := minHour - hourPaddingTop
	endHour := maxHour + hourPaddingBot
	if startHour < 0 {
		startHour = 0
	}
	if endHour > 23 {
		endHour = 23
	}

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour + 1,
	}
}

// drawHeader рисует заголовок с месяцем и названием группы
func drawHeader(dc *gg.Context, pal palette, weekStart time.Time, subject string) {
	startMonth := weekStart.Month()
	endMonth := weekStart.AddDate(0, 0, totalDaysInWeek-1).Month()

	title := timetable.MonthName(startMonth)
	if startMonth != endMonth {
		title += " - " + timetable.MonthName(endMonth)
	}
	if subject != "" {
		title = subject + " · " + title
	}

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(pal.text)
	_, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/8+h/2, 0, 0)
}

// drawHourLabels рисует колонку с часами слева
func drawHourLabels(dc *gg.Context, pal palette, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleMedium)
	dc.SetColor(pal.hourLabel)

	for hIdx := 0; hIdx < hours.total; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+hIdx), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

// drawDayBackground рисует фон дня
func drawDayBackground(dc *gg.Context, pal palette, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(pal.todayBg)
	case dayIndex%2 == 0:
		dc.SetColor(pal.evenDay)
	default:
		dc.SetColor(pal.oddDay)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

// drawDayHeader рисует день недели и дату
func drawDayHeader(dc *gg.Context, pal palette, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(pal.text)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(timetable.WeekdayShortName(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

// drawHourLines рисует горизонтальные линии часов
func drawHourLines(dc *gg.Context, pal palette, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(pal.hourLine)

	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawSlot рисует одно занятие
func drawSlot(dc *gg.Context, pal palette, box slotBox, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(box.start.Hour()) + float64(box.start.Minute())/60.0
	endHour := float64(box.end.Hour()) + float64(box.end.Minute())/60.0

	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := (endHour - startHour) * cellHeight
	if slotHeight < minSlotHeight {
		slotHeight = minSlotHeight
	}

	fill := lessonColor(&box.lesson)
	slotX := x + float64(dayPaddingX)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	// Тень
	dc.SetColor(pal.slotShadow)
	dc.DrawRoundedRectangle(slotX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(slotX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	// Рамка
	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(slotX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	txtX := slotX + 8
	txtY := slotY + 18
	loadFont(dc, slotTimeFontSize, FontStyleMedium)
	dc.SetColor(pal.slotText)
	dc.DrawStringAnchored(box.lesson.StartTime, txtX, txtY, 0, 0)

	lines := []string{box.lesson.Discipline, box.lesson.Location()}
	loadFont(dc, slotTextFontSize, FontStyleDefault)
	for _, line := range lines {
		if line == "" {
			continue
		}
		txtY += 16
		if txtY > slotY+slotHeight-6 {
			break
		}
		dc.DrawStringAnchored(truncateRunes(line, maxSlotTextRunes), txtX, txtY, 0, 0)
	}
}

// lessonColor цвет из API, а для белого по умолчанию - цвет по типу занятия
func lessonColor(l *model.Lesson) color.RGBA {
	if c, ok := parseHexColor(l.Color); ok && !strings.EqualFold(l.Color, model.DefaultLessonColor) {
		return c
	}
	return groupTypeColor(l.GroupType)
}

func groupTypeColor(groupType string) color.RGBA {
	t := strings.ToLower(groupType)
	switch {
	case strings.Contains(t, "лекц"):
		return lectureColor
	case strings.Contains(t, "практ"), strings.Contains(t, "семинар"), strings.Contains(t, "лаб"):
		return practiceColor
	case strings.Contains(t, "экзам"), strings.Contains(t, "зачет"), strings.Contains(t, "зачёт"):
		return examColor
	default:
		return otherColor
	}
}

// parseHexColor разбирает #RRGGBB
func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 230}, true
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine рисует линию текущего времени
func drawCurrentTimeLine(dc *gg.Context, pal palette, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	currentHour := float64(now.Hour()) + float64(now.Minute())/60.0
	if currentHour < float64(hours.start) || currentHour > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (currentHour-float64(hours.start))*cellHeight
	dc.SetColor(pal.currentTime)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), y)
	dc.Stroke()
}

// drawLegend рисует легенду справа
func drawLegend(dc *gg.Context, pal palette, dayWidth int) {
	legendItems := []struct {
		Label string
		Clr   color.Color
	}{
		{"Лекция", lectureColor},
		{"Практика", practiceColor},
		{"Экзамен", examColor},
		{"Другое", otherColor},
	}

	boxW := 20.0
	boxH := 14.0
	liX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	liY := float64(imageHeight) - 120.0

	loadFont(dc, legendItemFontSize, FontStyleDefault)
	for _, item := range legendItems {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(liX, liY, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(pal.legendItem)
		dc.DrawStringAnchored(item.Label, liX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func formatHourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// truncateRunes обрезает строку по символам, а не байтам
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
