package cache

import (
	"time"
)

// fixingHour は Euribor が公表される時刻（フランクフルト時間）です。
const fixingHour = 11

// TimeUntilNextFixing は次の Euribor 公表時刻（11:00 Europe/Berlin）までの期間を返します。
// 土日は公表がないため、次の平日まで進めます。
func TimeUntilNextFixing() time.Duration {
	return untilNextFixing(time.Now())
}

func untilNextFixing(now time.Time) time.Duration {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.FixedZone("CET", 3600)
	}
	local := now.In(loc)

	next := time.Date(local.Year(), local.Month(), local.Day(), fixingHour, 0, 0, 0, loc)
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
