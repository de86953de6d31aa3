package repository

import (
	"reflect"
	"sync"

	"gorm.io/gorm"
)

// trackReadsSetting marks a read statement as change-tracked; the query
// callback below snapshots whatever the statement materialized into the
// session carried by the setting. Lazily-composed statements (FindAll,
// FindByCondition) get tracking for free this way: the snapshot happens at
// execution, not at composition.
const trackReadsSetting = "campuskit:track_reads"

// trackReadsRegistry records which connections already carry the callback.
// gorm callback registration recompiles the processor pipeline without
// locking, so it must happen once per connection, not once per session.
var trackReadsRegistry sync.Map // callback handle -> *sync.Once

func registerTrackReadsCallback(conn *gorm.DB) {
	once, _ := trackReadsRegistry.LoadOrStore(conn.Callback(), new(sync.Once))
	once.(*sync.Once).Do(func() {
		_ = conn.Callback().Query().After("gorm:query").Register(trackReadsSetting, trackReads)
	})
}

func trackReads(stmt *gorm.DB) {
	if stmt.Error != nil {
		return
	}
	value, ok := stmt.Get(trackReadsSetting)
	if !ok {
		return
	}
	uow, ok := value.(*UnitOfWork)
	if !ok {
		return
	}
	uow.trackDest(stmt.Statement.Dest)
}

// trackDest snapshots a query destination: a *T or a *[]*T.
func (u *UnitOfWork) trackDest(dest any) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	elem := v.Elem()
	switch elem.Kind() {
	case reflect.Slice:
		for i := 0; i < elem.Len(); i++ {
			item := elem.Index(i)
			if item.Kind() == reflect.Pointer && !item.IsNil() {
				u.track(item.Interface())
			}
		}
	case reflect.Struct:
		u.track(dest)
	}
}
