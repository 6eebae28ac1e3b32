package services

import (
	"sort"
	"strings"
	"time"

	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/us"
)

// WeekdaysOnly skips weekends without any public holidays.
const WeekdaysOnly = "NONE"

// HolidayService answers whether a day is a working day in a country.
// The summary job uses it to skip days nobody logs cases on.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
	names     map[string]string
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{
		calendars: make(map[string]*cal.BusinessCalendar),
		names:     make(map[string]string),
	}
	s.add("VN", "Vietnam", vietnamHolidays()...)
	s.add("US", "United States", us.Holidays...)
	s.add("GB", "United Kingdom", gb.Holidays...)
	s.add("JP", "Japan", jp.Holidays...)
	return s
}

func (s *HolidayService) add(code, name string, holidays ...*cal.Holiday) {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	s.calendars[code] = c
	s.names[code] = name
}

// IsWorkday treats unknown country codes like WeekdaysOnly.
func (s *HolidayService) IsWorkday(t time.Time, countryCode string) bool {
	c, ok := s.calendars[strings.ToUpper(countryCode)]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

func (s *HolidayService) IsSupported(countryCode string) bool {
	code := strings.ToUpper(countryCode)
	_, ok := s.calendars[code]
	return ok || code == WeekdaysOnly
}

type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *HolidayService) SupportedCountries() []CountryInfo {
	countries := make([]CountryInfo, 0, len(s.names)+1)
	for code, name := range s.names {
		countries = append(countries, CountryInfo{Code: code, Name: name})
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].Code < countries[j].Code })
	return append(countries, CountryInfo{Code: WeekdaysOnly, Name: "Weekdays Only (Mon-Fri)"})
}

// vietnamHolidays lists the statutory days off. Tết and the Hùng Kings
// festival follow the lunar calendar.
func vietnamHolidays() []*cal.Holiday {
	fixed := func(name string, month time.Month, day int) *cal.Holiday {
		return &cal.Holiday{Name: name, Type: cal.ObservancePublic, Month: month, Day: day, Func: cal.CalcDayOfMonth}
	}
	lunar := func(name string, month, day, offset int) *cal.Holiday {
		return &cal.Holiday{Name: name, Type: cal.ObservancePublic, Func: lunarDate(month, day, offset)}
	}

	return []*cal.Holiday{
		fixed("Tết Dương lịch", time.January, 1),
		lunar("Giao thừa", 1, 1, -1),
		lunar("Mùng 1 Tết", 1, 1, 0),
		lunar("Mùng 2 Tết", 1, 1, 1),
		lunar("Mùng 3 Tết", 1, 1, 2),
		lunar("Mùng 4 Tết", 1, 1, 3),
		lunar("Giỗ Tổ Hùng Vương", 3, 10, 0),
		fixed("Ngày Giải phóng miền Nam", time.April, 30),
		fixed("Quốc tế Lao động", time.May, 1),
		fixed("Quốc khánh", time.September, 2),
		fixed("Quốc khánh (ngày liền kề)", time.September, 3),
	}
}

// lunarDate converts a day of the lunar year that starts in the given solar
// year, shifted by offset days.
func lunarDate(month, day, offset int) cal.HolidayFn {
	return func(h *cal.Holiday, year int) time.Time {
		solar := calendar.NewLunarFromYmd(year, month, day).GetSolar()
		return time.Date(solar.GetYear(), time.Month(solar.GetMonth()), solar.GetDay(), 0, 0, 0, 0, time.Local).
			AddDate(0, 0, offset)
	}
}
