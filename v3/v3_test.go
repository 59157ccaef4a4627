package v3

import (
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	data := []float64{0, 0, 0, 1, 0, 0, 2, 0, 0}
	m, err := NewMatrix(data)
	if err != nil {
		Te.Error(err)
	}
	if m.NVecs() != 3 {
		Te.Errorf("Expected 3 vectors, got %d", m.NVecs())
	}
	_, err = NewMatrix(data[:4])
	if err == nil {
		Te.Error("A slice of length 4 should not produce a Matrix")
	}
}

func TestViews(Te *testing.T) {
	m := Zeros(4)
	v := m.VecView(2)
	v.Set(0, 1, 3.25)
	if m.At(2, 1) != 3.25 {
		Te.Errorf("Views should share data with the viewed matrix, got %v", m.At(2, 1))
	}
	if v.NVecs() != 1 || v.Len() != 1 {
		Te.Error("A vector view should have one vector")
	}
}

func TestSetMatrix(Te *testing.T) {
	m := Zeros(3)
	sub, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	m.SetMatrix(1, 0, sub)
	if m.At(1, 0) != 1 || m.At(2, 2) != 6 {
		Te.Errorf("SetMatrix misplaced values: %v %v", m.At(1, 0), m.At(2, 2))
	}
	if m.At(0, 0) != 0 {
		Te.Error("SetMatrix touched rows it should not have")
	}
}

func TestSomeVecs(Te *testing.T) {
	m, _ := NewMatrix([]float64{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3})
	s := SomeVecs(m, []int{3, 1})
	if s.NVecs() != 2 || s.At(0, 0) != 3 || s.At(1, 2) != 1 {
		Te.Errorf("Wrong selection: %v", s)
	}
	//The selection owns its data.
	s.Set(0, 0, 99)
	if m.At(3, 0) != 3 {
		Te.Error("SomeVecs should copy, not view")
	}
}

func TestSwapVecs(Te *testing.T) {
	m, _ := NewMatrix([]float64{0, 0, 0, 1, 1, 1})
	m.SwapVecs(0, 1)
	if m.At(0, 0) != 1 || m.At(1, 0) != 0 {
		Te.Error("SwapVecs did not swap")
	}
}
