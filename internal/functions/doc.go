/*
Package functions implements the engine's scalar and aggregate SQL
function registry: string, math, aggregate, and date/time built-ins, plus
registration of user-defined functions.

# Overview

72 function names are organized into categories:

  - String functions (16): length, substr, upper, lower, trim, replace, like, glob, etc.
  - Type functions (5): typeof, coalesce, ifnull, nullif, iif
  - Math functions (33, aliases included): abs, round, sqrt, power, trigonometry, etc.
  - Aggregate functions (8): count, sum, avg, min, max, group_concat
  - Date/time functions (9): date, time, datetime, julianday, unixepoch, strftime
  - Blob functions (1): zeroblob

# Quick start

	// Create a registry with all standard functions
	registry := functions.DefaultRegistry()

	// Look up and call a scalar function
	upperFunc, _ := registry.Lookup("upper")
	result, _ := upperFunc.Call([]functions.Value{
	    functions.NewTextValue("hello world"),
	})
	fmt.Println(result.AsString())  // Output: HELLO WORLD

	// Use an aggregate function
	sumFunc := &functions.SumFunc{}
	for _, value := range values {
	    sumFunc.Step([]functions.Value{value})
	}
	result, _ := sumFunc.Final()
	fmt.Println(result.AsInt64())

# Architecture

The package is built around three interfaces:

Value represents a SQL value with its type:

	type Value interface {
	    Type() ValueType
	    AsInt64() int64
	    AsFloat64() float64
	    AsString() string
	    AsBlob() []byte
	    IsNull() bool
	    Bytes() int
	}

Function is the base interface for all SQL functions:

	type Function interface {
	    Name() string
	    NumArgs() int  // -1 for variadic
	    Call(args []Value) (Value, error)
	}

AggregateFunction extends Function with grouped state:

	type AggregateFunction interface {
	    Function
	    Step(args []Value) error
	    Final() (Value, error)
	    Reset()
	}

# String functions

String functions are UTF-8 aware and count characters, not bytes:

	length("hello")              // 5
	length("世界")               // 2
	substr("hello", 2, 3)        // "ell"
	upper("hello")               // "HELLO"
	replace("hello", "l", "L")   // "heLLo"
	hex("ABC")                   // "414243"
	quote("it's")                // "'it''s'"

# Math functions

	abs(-42)                     // 42
	round(3.14159, 2)            // 3.14
	sqrt(16)                     // 4.0
	power(2, 10)                 // 1024.0
	sin(pi()/2)                  // 1.0
	random()                     // random int64

# Aggregate functions

	count(*)                     // count all rows
	count(column)                // count non-NULL values
	sum(amount)                  // sum (NULL if empty)
	total(amount)                // sum (0.0 if empty)
	avg(score)                   // average
	min(value), max(value)       // extremes
	group_concat(name, ', ')     // concatenate with separator

# Date/time functions

Date and time manipulation based on Julian day numbers:

	date('now')                           // "2024-01-15"
	time('now')                           // "12:34:56"
	datetime('now')                       // "2024-01-15 12:34:56"
	julianday('2000-01-01')              // 2451544.5
	unixepoch('now')                     // 1705323296
	strftime('%Y-%m-%d', 'now')          // "2024-01-15"

Date modifiers:

	date('now', '+1 day')                // tomorrow
	date('now', '-1 month')              // last month
	date('2024-01-15', 'start of month') // "2024-01-01"
	datetime('now', 'start of day')      // today at 00:00:00

# Type system

Five value types, with this affinity ordering for comparison:
NULL < INTEGER < FLOAT < TEXT < BLOB.

  - TypeNull: SQL NULL
  - TypeInteger: 64-bit signed integer
  - TypeFloat: 64-bit floating point
  - TypeText: UTF-8 string
  - TypeBlob: byte array

# NULL handling

Most functions follow these rules:

  - f(NULL) returns NULL
  - Aggregates skip NULL values
  - Type functions may handle NULL specially

Exceptions:

	coalesce(NULL, NULL, 42)     // 42
	ifnull(NULL, "default")      // "default"
	typeof(NULL)                 // "null"
	count(*)                     // counts NULL rows

# Custom functions

	registry := functions.NewRegistry()

	doubleFunc := functions.NewScalarFunc("double", 1,
	    func(args []functions.Value) (functions.Value, error) {
	        if args[0].IsNull() {
	            return functions.NewNullValue(), nil
	        }
	        return functions.NewIntValue(args[0].AsInt64() * 2), nil
	    })

	registry.Register(doubleFunc)

# Not included

  - Full-text and R*Tree extension functions
  - Window functions
  - Custom collations
  - Compiled regular expressions

# Error handling

Functions return errors for invalid argument counts and type conversion
failures. Math domain errors are not reported as errors: sqrt of a negative
number returns NaN. Functions return NULL, not an error, for NULL input and
unparseable format strings.

# Thread safety

Individual function calls are independent and safe to call concurrently.
Aggregate function instances carry mutable per-group state and must not be
shared across goroutines; registry reads are safe, writes require external
synchronization.
*/
package functions
