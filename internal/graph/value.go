// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package graph

import (
	"fmt"
	"slices"
	"strings"
)

// ElemType is the element type of a tensor value.
type ElemType string

const (
	ElemUndefined ElemType = ""
	ElemFloat     ElemType = "float"
	ElemFloat16   ElemType = "float16"
	ElemDouble    ElemType = "double"
	ElemInt32     ElemType = "int32"
	ElemInt64     ElemType = "int64"
	ElemBool      ElemType = "bool"
)

// Dim is one dimension of a shape: either a fixed size or a symbolic parameter.
type Dim struct {
	Value int64
	Param string
}

// String renders the dimension as its size or its parameter name.
func (d Dim) String() string {
	if d.Param != "" {
		return d.Param
	}
	return fmt.Sprintf("%d", d.Value)
}

// ValueInfo is the typed shape metadata of a named value. An empty Shape
// denotes a scalar.
type ValueInfo struct {
	Name     string
	ElemType ElemType
	Shape    []Dim
}

// GetName implements Named.
func (v ValueInfo) GetName() string { return v.Name }

// WithName implements Named.
func (v ValueInfo) WithName(name string) ValueInfo {
	v.Shape = slices.Clone(v.Shape)
	v.Name = name
	return v
}

// Rank returns the number of dimensions.
func (v ValueInfo) Rank() int { return len(v.Shape) }

// String renders the value as name:type[d0,d1].
func (v ValueInfo) String() string {
	dims := make([]string, len(v.Shape))
	for i, d := range v.Shape {
		dims[i] = d.String()
	}
	return fmt.Sprintf("%s:%s[%s]", v.Name, v.ElemType, strings.Join(dims, ","))
}

// Scalar returns the metadata of a rank-0 value.
func Scalar(name string, elem ElemType) ValueInfo {
	return ValueInfo{Name: name, ElemType: elem}
}

// Tensor returns the metadata of a value with fixed dimensions.
func Tensor(name string, elem ElemType, dims ...int64) ValueInfo {
	shape := make([]Dim, len(dims))
	for i, d := range dims {
		shape[i] = Dim{Value: d}
	}
	return ValueInfo{Name: name, ElemType: elem, Shape: shape}
}

// Initializer is a named constant. Its payload is opaque to the partitioner.
type Initializer struct {
	Name     string
	ElemType ElemType
	Dims     []int64
	Raw      []byte
}

// GetName implements Named.
func (i Initializer) GetName() string { return i.Name }

// WithName implements Named.
func (i Initializer) WithName(name string) Initializer {
	i.Dims = slices.Clone(i.Dims)
	i.Raw = slices.Clone(i.Raw)
	i.Name = name
	return i
}
