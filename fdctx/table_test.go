// File: fdctx/table_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fdctx

import "testing"

func TestTable_GetAutoCreateGrows(t *testing.T) {
	tbl := NewTable()
	c := tbl.Get(200, true)
	if c == nil {
		t.Fatal("Get with autoCreate should not return nil")
	}
	if tbl.Get(200, false) != c {
		t.Fatal("second Get without autoCreate should return the same entry")
	}
}

func TestTable_GetWithoutAutoCreate(t *testing.T) {
	tbl := NewTable()
	if tbl.Get(5, false) != nil {
		t.Fatal("Get without autoCreate on an unknown fd should return nil")
	}
}

func TestTable_Del(t *testing.T) {
	tbl := NewTable()
	tbl.Get(3, true)
	tbl.Del(3)
	if tbl.Get(3, false) != nil {
		t.Fatal("Get after Del should return nil")
	}
}

func TestTable_NegativeFd(t *testing.T) {
	tbl := NewTable()
	if tbl.Get(-1, true) != nil {
		t.Fatal("Get(-1) should always return nil")
	}
}
