package applicant_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/applicant/applicanttest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSchema_Validate(t *testing.T) {
	Convey("Given the base schema", t, func() {
		schema := applicant.Base()

		Convey("When the record is complete and well formed", func() {
			rec := applicanttest.Record()

			Convey("Then validation should pass", func() {
				So(schema.Validate(rec), ShouldBeNil)
			})
		})

		Convey("When a required field is missing", func() {
			rec := applicant.NewRecord()
			for _, name := range applicanttest.Record().Fields() {
				if name == applicant.FieldHousingType {
					continue
				}
				v, _ := applicanttest.Record().Get(name)
				rec.Set(name, v)
			}

			Convey("Then it should name the missing field", func() {
				err := schema.Validate(rec)
				So(err, ShouldNotBeNil)
				So(errors.Is(err, applicant.ErrInvalidRecord), ShouldBeTrue)

				var ire *applicant.InvalidRecordError
				So(errors.As(err, &ire), ShouldBeTrue)
				So(ire.Field, ShouldEqual, applicant.FieldHousingType)
			})
		})

		Convey("When a category is outside its domain", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldEducation, applicant.Category("Kindergarten"))

			Convey("Then validation should fail", func() {
				err := schema.Validate(rec)
				So(errors.Is(err, applicant.ErrInvalidRecord), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, applicant.FieldEducation)
			})
		})

		Convey("When a category differs only in case and spacing", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldHousingType, applicant.Category("  house /   apartment "))

			Convey("Then it should be accepted", func() {
				So(schema.Validate(rec), ShouldBeNil)
			})
		})

		Convey("When a numeric field is negative", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldIncome, applicant.Number(-1))

			Convey("Then validation should fail", func() {
				So(errors.Is(schema.Validate(rec), applicant.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When a numeric field is NaN", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldIncome, applicant.Number(math.NaN()))

			Convey("Then validation should fail", func() {
				So(errors.Is(schema.Validate(rec), applicant.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When age is out of range", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldAge, applicant.Number(17))

			Convey("Then validation should fail", func() {
				So(errors.Is(schema.Validate(rec), applicant.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When an integer field carries a fraction", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldChildren, applicant.Number(1.5))

			Convey("Then validation should fail", func() {
				So(errors.Is(schema.Validate(rec), applicant.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When a boolean is given as a Yes/No category", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldOwnCar, applicant.Category("yes"))

			Convey("Then it should be accepted", func() {
				So(schema.Validate(rec), ShouldBeNil)
			})
		})

		Convey("When a boolean is given as 0/1", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldOwnCar, applicant.Number(1))

			Convey("Then it should be rejected", func() {
				So(errors.Is(schema.Validate(rec), applicant.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When the record is nil", func() {
			Convey("Then validation should fail", func() {
				So(errors.Is(schema.Validate(nil), applicant.ErrInvalidRecord), ShouldBeTrue)
			})
		})
	})

	Convey("Given the extended schema", t, func() {
		schema := applicant.Extended()

		Convey("When the record lacks occupation", func() {
			Convey("Then validation should fail on that field", func() {
				var ire *applicant.InvalidRecordError
				So(errors.As(schema.Validate(applicanttest.Record()), &ire), ShouldBeTrue)
				So(ire.Field, ShouldEqual, applicant.FieldOccupation)
			})
		})

		Convey("When family members is zero", func() {
			rec := applicanttest.ExtendedRecord()
			rec.Set(applicant.FieldFamilyMembers, applicant.Number(0))

			Convey("Then validation should fail", func() {
				So(errors.Is(schema.Validate(rec), applicant.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When the record is complete", func() {
			Convey("Then validation should pass", func() {
				So(schema.Validate(applicanttest.ExtendedRecord()), ShouldBeNil)
			})
		})
	})
}

func TestNewSchema(t *testing.T) {
	Convey("Given field declarations", t, func() {
		Convey("When two fields share a name", func() {
			_, err := applicant.NewSchema("dup",
				applicant.Field{Name: "A", Kind: applicant.KindNumber},
				applicant.Field{Name: "A", Kind: applicant.KindNumber},
			)

			Convey("Then construction should fail", func() {
				So(errors.Is(err, applicant.ErrInvalidSchema), ShouldBeTrue)
			})
		})

		Convey("When a category field has no domain", func() {
			_, err := applicant.NewSchema("empty",
				applicant.Field{Name: "A", Kind: applicant.KindCategory},
			)

			Convey("Then construction should fail", func() {
				So(errors.Is(err, applicant.ErrInvalidSchema), ShouldBeTrue)
			})
		})
	})
}

func TestVariant(t *testing.T) {
	Convey("Given variant names", t, func() {
		Convey("Then base and extended should resolve", func() {
			s, err := applicant.Variant("base")
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, applicant.VariantBase)

			s, err = applicant.Variant(" Extended ")
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, applicant.VariantExtended)
			So(len(s.Fields()), ShouldEqual, len(applicant.Base().Fields())+2)
		})

		Convey("Then an unknown name should fail", func() {
			_, err := applicant.Variant("legacy")
			So(errors.Is(err, applicant.ErrUnknownSchema), ShouldBeTrue)
		})
	})
}

func TestRecord(t *testing.T) {
	Convey("Given a record", t, func() {
		rec := applicant.NewRecord()
		rec.Set("B", applicant.Number(2))
		rec.Set("A", applicant.Number(1))
		rec.Set("B", applicant.Number(3))

		Convey("Then fields keep first insertion order", func() {
			So(rec.Fields(), ShouldResemble, []string{"B", "A"})
			v, ok := rec.Get("B")
			So(ok, ShouldBeTrue)
			So(v.Float(), ShouldEqual, 3)
		})

		Convey("Then a clone is independent", func() {
			c := rec.Clone()
			c.Set("A", applicant.Number(9))
			v, _ := rec.Get("A")
			So(v.Float(), ShouldEqual, 1)
		})
	})
}
