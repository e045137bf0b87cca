package util

import (
	"sync"
	"time"
)

var (
	kstOnce sync.Once
	kst     *time.Location
)

// KST는 Asia/Seoul 위치를 반환. tzdata가 없으면 고정 +09:00 존을 쓴다.
func KST() *time.Location {
	kstOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Seoul")
		if err != nil {
			loc = time.FixedZone("KST", 9*60*60)
		}
		kst = loc
	})
	return kst
}

func FormatKST(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(KST()).Format(layout)
}
